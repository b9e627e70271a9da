// Package adapthttp exposes the read-side status API over HTTP.
package adapthttp

import (
	"net/http"

	"stepquest/internal/app"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	userID     string
	reconciler *app.Reconciler
	stats      *app.StatsService
	profile    *app.ProfileService
}

// New creates a Server wired to the given application services for the
// signed-in user.
func New(userID string, r *app.Reconciler, st *app.StatsService, p *app.ProfileService) *Server {
	return &Server{userID: userID, reconciler: r, stats: st, profile: p}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/today", s.handleToday)
	api.HandleFunc("/weekly", s.handleWeekly)
	api.HandleFunc("/streak", s.handleStreak)
	api.HandleFunc("/best", s.handleBest)
	api.HandleFunc("/leaderboard", s.handleLeaderboard)
	api.HandleFunc("/goal", s.handleGoal)
	api.HandleFunc("/username", s.handleUsername)

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return withNoCache(root)
}
