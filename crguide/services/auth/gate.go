// Package auth gates the chat behind a Google sign-in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"crguide/crguide/utils/logging"
	"crguide/crguide/utils/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type State int

const (
	LoggedOut State = iota
	CodeReceived
	LoggedIn
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case CodeReceived:
		return "code_received"
	case LoggedIn:
		return "logged_in"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrStateMismatch = errors.New("oauth state mismatch")
	ErrDenied        = errors.New("sign-in was cancelled")
	ErrExchange      = errors.New("token exchange failed")
	ErrProfile       = errors.New("profile fetch failed")
	ErrBusy          = errors.New("sign-in already in progress")
)

// Profile is the raw userinfo object, passed through untouched.
type Profile map[string]any

func (p Profile) str(key string) string {
	s, _ := p[key].(string)
	return s
}

func (p Profile) Name() string    { return p.str("name") }
func (p Profile) Picture() string { return p.str("picture") }
func (p Profile) Email() string   { return p.str("email") }
func (p Profile) Subject() string { return p.str("id") }

func (p Profile) View() types.ProfileView {
	return types.ProfileView{Name: p.Name(), Picture: p.Picture(), Email: p.Email()}
}

// LoginHook runs after a successful sign-in. Its error is logged, never surfaced.
type LoginHook func(ctx context.Context, p Profile) error

// Gate is the per-session sign-in state machine:
// LoggedOut -> CodeReceived -> LoggedIn, CodeReceived -> LoggedOut on failure, LoggedIn -> LoggedOut on logout.
type Gate struct {
	provider Provider
	onLogin  LoginHook

	mu         sync.RWMutex
	state      State
	profile    Profile
	lastErr    error
	oauthState string
}

func NewGate(provider Provider, onLogin LoginHook) *Gate {
	return &Gate{provider: provider, onLogin: onLogin}
}

// Begin returns the provider URL the user is sent to.
func (g *Gate) Begin() string {
	state := uuid.NewString()
	g.mu.Lock()
	g.oauthState = state
	g.mu.Unlock()
	return g.provider.AuthCodeURL(state)
}

// ReceiveCode completes the sign-in. Failures leave the gate LoggedOut with LastError set.
func (g *Gate) ReceiveCode(ctx context.Context, code, state string) error {
	g.mu.Lock()
	if g.state == CodeReceived {
		g.mu.Unlock()
		return ErrBusy
	}
	if state == "" || state != g.oauthState {
		g.oauthState = ""
		g.mu.Unlock()
		return g.fail(ErrStateMismatch)
	}
	g.oauthState = ""
	g.state = CodeReceived
	g.lastErr = nil
	g.mu.Unlock()

	token, err := g.provider.Exchange(ctx, code)
	if err != nil {
		return g.fail(fmt.Errorf("%w: %v", ErrExchange, err))
	}
	profile, err := g.provider.FetchProfile(ctx, token)
	if err != nil {
		return g.fail(fmt.Errorf("%w: %v", ErrProfile, err))
	}

	g.mu.Lock()
	g.state = LoggedIn
	g.profile = profile
	g.mu.Unlock()

	logging.AppLogger.Info("user signed in", zap.String("email", profile.Email()))
	if g.onLogin != nil {
		if err := g.onLogin(ctx, profile); err != nil {
			logging.ErrorLogger.Error("login hook failed", zap.Error(err))
		}
	}
	return nil
}

// Fail records a provider-side error, e.g. the user declining consent.
func (g *Gate) Fail(err error) error {
	g.mu.Lock()
	g.oauthState = ""
	g.mu.Unlock()
	return g.fail(err)
}

func (g *Gate) fail(err error) error {
	logging.ErrorLogger.Error("sign-in failed", zap.Error(err))
	g.mu.Lock()
	g.state = LoggedOut
	g.profile = nil
	g.lastErr = err
	g.mu.Unlock()
	return err
}

func (g *Gate) Logout() {
	g.mu.Lock()
	g.state = LoggedOut
	g.profile = nil
	g.lastErr = nil
	g.oauthState = ""
	g.mu.Unlock()
}

func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Gate) LoggedIn() bool { return g.State() == LoggedIn }

func (g *Gate) Profile() Profile {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.profile
}

func (g *Gate) LastError() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastErr
}

// UserMessage explains a sign-in failure in words fit for the login page.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStateMismatch):
		return "Your sign-in link expired. Please try again."
	case errors.Is(err, ErrDenied):
		return "Sign-in was cancelled."
	case errors.Is(err, ErrExchange):
		return "Google did not accept the sign-in. Please try again."
	case errors.Is(err, ErrProfile):
		return "We could not load your Google profile. Please try again."
	}
	return "Sign-in failed. Please try again."
}
