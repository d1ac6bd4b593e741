// crguide/middlewares/auth.go
package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"crguide/crguide/config"
	"crguide/crguide/sessions"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const SessionKey contextKey = "session"

const SessionCookie = "crg_session"

type SessionLookup interface {
	Get(id string) (*sessions.Session, bool)
}

// SessionFrom returns the session attached by SessionMiddleware, or nil.
func SessionFrom(ctx context.Context) *sessions.Session {
	s, _ := ctx.Value(SessionKey).(*sessions.Session)
	return s
}

// tokenFrom reads the session token from the cookie, falling back to a bearer header.
func tokenFrom(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// ParseSessionID validates a signed session token and returns the session id in it.
func ParseSessionID(secret, tokenStr string) (string, bool) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sid, ok := claims["sid"].(string)
	return sid, ok && sid != ""
}

// SessionMiddleware attaches the caller's session when the token is valid and the session still exists.
// It never rejects; RequireLogin and RequireLoginPage do that.
func SessionMiddleware(cfg config.Config, lookup SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFrom(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}
			sid, ok := ParseSessionID(cfg.JWTSecret, tokenStr)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			sess, ok := lookup.Get(sid)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), SessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func signedIn(r *http.Request) bool {
	sess := SessionFrom(r.Context())
	return sess != nil && sess.Gate.LoggedIn()
}

// RequireLogin answers 401 JSON for API callers without a signed-in session.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !signedIn(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireLoginPage sends browsers without a signed-in session back to the login page.
func RequireLoginPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !signedIn(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WantsJSON tells API callers apart from plain form posts.
func WantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// RequireLoginAny applies RequireLogin to JSON callers and RequireLoginPage to everyone else.
func RequireLoginAny(next http.Handler) http.Handler {
	api, page := RequireLogin(next), RequireLoginPage(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if WantsJSON(r) {
			api.ServeHTTP(w, r)
			return
		}
		page.ServeHTTP(w, r)
	})
}
