// Package identity manages the delegated sign-in state. Authentication
// itself happens against an external OIDC provider; this package only
// verifies ID tokens, persists the resulting session in the local state
// store and answers "is there a signed-in user".
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"stepquest/internal/domain"
)

const sessionKey = "session.current"

// ErrNotSignedIn indicates no valid session is stored on the device.
var ErrNotSignedIn = errors.New("not signed in")

// Session is the signed-in user on this device.
type Session struct {
	UserID     string        `json:"userId"`
	RawIDToken string        `json:"idToken"`
	Token      *oauth2.Token `json:"token,omitempty"`
}

// Manager verifies and stores sessions. Multiple components share one
// Manager; there is no package-level current-user state.
type Manager struct {
	kv       domain.StateStore
	verifier *oidc.IDTokenVerifier
}

// NewManager creates a Manager backed by the given local store. verifier may
// be nil, in which case stored sessions are trusted as-is (tests, offline
// development).
func NewManager(kv domain.StateStore, verifier *oidc.IDTokenVerifier) *Manager {
	return &Manager{kv: kv, verifier: verifier}
}

// NewVerifier discovers the OIDC provider at issuer and returns a verifier
// for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*oidc.IDTokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}
	return provider.Verifier(&oidc.Config{ClientID: clientID}), nil
}

// SignIn verifies rawIDToken, persists the session and returns it. token is
// the provider token carrying expiry/refresh material; it may be nil.
func (m *Manager) SignIn(ctx context.Context, rawIDToken string, token *oauth2.Token) (Session, error) {
	userID, err := m.subject(ctx, rawIDToken)
	if err != nil {
		return Session{}, err
	}

	s := Session{UserID: userID, RawIDToken: rawIDToken, Token: token}
	raw, err := json.Marshal(s)
	if err != nil {
		return Session{}, err
	}
	if err := m.kv.Set(ctx, sessionKey, string(raw)); err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}
	return s, nil
}

// SignOut removes the stored session.
func (m *Manager) SignOut(ctx context.Context) error {
	return m.kv.Delete(ctx, sessionKey)
}

// Current returns the stored session, or ErrNotSignedIn when none exists or
// the stored provider token has expired without refresh material.
func (m *Manager) Current(ctx context.Context) (Session, error) {
	raw, ok, err := m.kv.Get(ctx, sessionKey)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNotSignedIn
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, fmt.Errorf("decode stored session: %w", err)
	}
	if s.UserID == "" {
		return Session{}, ErrNotSignedIn
	}
	if s.Token != nil && !s.Token.Valid() && s.Token.RefreshToken == "" {
		return Session{}, ErrNotSignedIn
	}
	return s, nil
}

// subject extracts the stable user id from an ID token, verifying the token
// when a verifier is configured.
func (m *Manager) subject(ctx context.Context, rawIDToken string) (string, error) {
	if m.verifier == nil {
		var claims struct {
			Sub string `json:"sub"`
		}
		if err := unsafeDecodeClaims(rawIDToken, &claims); err != nil {
			return "", err
		}
		if claims.Sub == "" {
			return "", errors.New("id token has no subject")
		}
		return claims.Sub, nil
	}

	idToken, err := m.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", fmt.Errorf("verify id token: %w", err)
	}
	if idToken.Expiry.Before(time.Now()) {
		return "", errors.New("id token expired")
	}
	return idToken.Subject, nil
}
