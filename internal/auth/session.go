// Package auth manages the authenticated session against the atelier API:
// login, registration, logout, and resuming a persisted token. The rest of
// the client only ever reads the session; it never drives its lifecycle.
package auth

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/atelier/client/internal/client"
)

// User is the authenticated account as served by GET /users/me/.
type User struct {
	ID          int      `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	PhoneNumber string   `json:"phone_number"`
	Roles       []string `json:"roles"`
}

// loginRequest is the POST /auth/login/ payload.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse carries the opaque session token.
type loginResponse struct {
	Key string `json:"key"`
}

// registerRequest is the POST /auth/registration/ payload.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Session tracks the current account and keeps the API client's token in
// sync with it.
type Session struct {
	api   *client.Client
	store TokenStore
	log   *zap.Logger

	mu   sync.RWMutex
	user *User
}

// NewSession creates a session manager. store may be nil when token
// persistence is not wanted (e.g., in tests).
func NewSession(api *client.Client, store TokenStore, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{api: api, store: store, log: log}
}

// Login authenticates with email and password, installs the returned token
// on the API client, and loads the account profile.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	var resp loginResponse
	err := s.api.PostJSON(ctx, "/auth/login/", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.api.SetToken(resp.Key)

	user, err := s.fetchUser(ctx)
	if err != nil {
		s.api.ClearToken()
		return nil, err
	}

	s.setUser(user)
	s.persist(resp.Key)
	s.log.Info("logged in", zap.Int("user_id", user.ID))
	return user, nil
}

// Register creates an account and logs it in, mirroring the site's
// registration flow.
func (s *Session) Register(ctx context.Context, email, password, fullName string) (*User, error) {
	req := registerRequest{Email: email, Password: password, FullName: fullName}
	if err := s.api.PostJSON(ctx, "/auth/registration/", req, nil); err != nil {
		return nil, fmt.Errorf("registration: %w", err)
	}
	return s.Login(ctx, email, password)
}

// Logout invalidates the session server-side and clears local state. The
// local token is dropped even when the server call fails.
func (s *Session) Logout(ctx context.Context) error {
	err := s.api.PostJSON(ctx, "/auth/logout/", nil, nil)

	s.api.ClearToken()
	s.setUser(nil)
	if s.store != nil {
		if clearErr := s.store.Clear(); clearErr != nil {
			s.log.Warn("clearing persisted token failed", zap.Error(clearErr))
		}
	}

	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Resume restores a previously persisted session. A missing or rejected
// token leaves the session unauthenticated without error; only transport
// failures are reported.
func (s *Session) Resume(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	token, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("loading persisted token: %w", err)
	}
	if token == "" {
		return nil
	}

	s.api.SetToken(token)
	user, err := s.fetchUser(ctx)
	if err != nil {
		s.api.ClearToken()
		if client.IsUnauthorized(err) {
			// Stale token: drop it and carry on anonymously.
			if clearErr := s.store.Clear(); clearErr != nil {
				s.log.Warn("clearing persisted token failed", zap.Error(clearErr))
			}
			return nil
		}
		return err
	}

	s.setUser(user)
	return nil
}

// CurrentUser returns the authenticated account, or nil.
func (s *Session) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	return s.CurrentUser() != nil
}

// HasRole reports whether the current user carries the named role.
func (s *Session) HasRole(role string) bool {
	user := s.CurrentUser()
	if user == nil {
		return false
	}
	for _, r := range user.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Session) fetchUser(ctx context.Context) (*User, error) {
	var user User
	if err := s.api.GetJSON(ctx, "/users/me/", nil, &user); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return &user, nil
}

func (s *Session) setUser(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

func (s *Session) persist(token string) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(token); err != nil {
		s.log.Warn("persisting token failed", zap.Error(err))
	}
}
