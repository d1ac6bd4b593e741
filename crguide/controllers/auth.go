// crguide/controllers/auth.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crguide/crguide/config"
	"crguide/crguide/services/auth"
	"crguide/crguide/sessions"

	"github.com/golang-jwt/jwt/v5"
)

type AuthController struct {
	sessions *sessions.Manager
	cfg      config.Config
}

func NewAuthController(sessions *sessions.Manager, cfg config.Config) *AuthController {
	return &AuthController{
		sessions: sessions,
		cfg:      cfg,
	}
}

// StartLogin reuses sess when given, or opens a new one, and returns the provider URL.
func (c *AuthController) StartLogin(sess *sessions.Session) (*sessions.Session, string) {
	if sess == nil {
		sess = c.sessions.Create()
	}
	return sess, sess.Gate.Begin()
}

// Callback finishes the sign-in. providerErr is the "error" query parameter Google sends back.
func (c *AuthController) Callback(ctx context.Context, sess *sessions.Session, code, state, providerErr string) error {
	if sess == nil {
		return sessions.ErrNotLoggedIn
	}
	if sess.Gate.LoggedIn() {
		return nil
	}
	if providerErr != "" {
		return sess.Gate.Fail(fmt.Errorf("%w: %s", auth.ErrDenied, providerErr))
	}
	return sess.Gate.ReceiveCode(ctx, code, state)
}

func (c *AuthController) Logout(sess *sessions.Session) {
	if sess == nil {
		return
	}
	c.sessions.Delete(sess.ID)
}

// IssueToken signs the session cookie value.
func (c *AuthController) IssueToken(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("empty session id")
	}
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": time.Now().Add(c.cfg.SessionTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.cfg.JWTSecret))
}
