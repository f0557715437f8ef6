// Package auth gates the admin area behind a single shared password and
// server-side session tokens carried in a cookie.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// CookieName is the admin session cookie.
	CookieName = "admin_session"
	// SessionTTL is the fixed lifetime of an admin session.
	SessionTTL = 3600 * time.Second
)

// ErrInvalidCredentials is returned for a wrong password, or when no
// admin password is configured at all.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Config holds the admin credential. PasswordHash (bcrypt) wins over
// Password when both are set.
type Config struct {
	Password     string
	PasswordHash string
}

// Authenticator validates the admin password and issues sessions.
type Authenticator struct {
	password     []byte
	passwordHash []byte
	sessions     SessionStore
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(cfg Config, sessions SessionStore) *Authenticator {
	a := &Authenticator{sessions: sessions}
	if cfg.PasswordHash != "" {
		a.passwordHash = []byte(cfg.PasswordHash)
	} else if cfg.Password != "" {
		a.password = []byte(cfg.Password)
	}
	return a
}

// Enabled reports whether any admin credential is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.passwordHash) > 0 || len(a.password) > 0
}

// Login checks password and, on success, stores and returns a fresh
// random session token.
func (a *Authenticator) Login(ctx context.Context, password string) (string, error) {
	if !a.checkPassword(password) {
		return "", ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	if err := a.sessions.Create(ctx, token, SessionTTL); err != nil {
		return "", err
	}
	return token, nil
}

func (a *Authenticator) checkPassword(password string) bool {
	switch {
	case len(a.passwordHash) > 0:
		return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	case len(a.password) > 0:
		return subtle.ConstantTimeCompare(a.password, []byte(password)) == 1
	default:
		return false
	}
}

// Authenticated reports whether r carries a live session cookie.
// Store failures count as unauthenticated.
func (a *Authenticator) Authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	ok, err := a.sessions.Valid(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("validating admin session", "error", err)
		return false
	}
	return ok
}

// Logout revokes the request's session, if any, and clears the cookie.
func (a *Authenticator) Logout(w http.ResponseWriter, r *http.Request) error {
	ClearCookie(w)

	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil // no session to destroy
	}
	return a.sessions.Delete(r.Context(), cookie.Value)
}

// SetCookie writes the session cookie for token.
func SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the session cookie immediately.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// HashPassword returns a bcrypt hash suitable for Config.PasswordHash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
