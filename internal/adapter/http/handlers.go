package adapthttp

import (
	"errors"
	"net/http"

	"stepquest/internal/app"
	"stepquest/internal/domain"
)

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	goal, err := s.profile.DailyGoal(r.Context(), s.userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	steps := s.reconciler.Steps()
	writeJSON(w, http.StatusOK, map[string]any{
		"day":         s.reconciler.Day(),
		"steps":       steps,
		"goal":        goal,
		"goalReached": steps >= goal,
	})
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	days, err := s.stats.WeeklySteps(r.Context(), s.userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	streak, err := s.stats.CurrentStreak(r.Context(), s.userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"streak": streak})
}

func (s *Server) handleBest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	best, err := s.stats.Best(r.Context(), s.userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bestDailySteps": best})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	top, err := s.stats.Leaderboard(r.Context(), intQuery(r, "limit", 20))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": top})
}

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		goal, err := s.profile.DailyGoal(r.Context(), s.userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"goal": goal})
	case http.MethodPost:
		var body struct {
			Goal int `json:"goal"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.profile.SetDailyGoal(r.Context(), s.userID, body.Goal); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, app.ErrInvalidGoal) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"goal": body.Goal})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUsername(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Username string `json:"username"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.profile.SetUsername(r.Context(), s.userID, body.Username); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			status = http.StatusConflict
		case errors.Is(err, app.ErrEmptyUsername), errors.Is(err, app.ErrUsernameTooLong):
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": body.Username})
}
