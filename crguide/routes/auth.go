// crguide/routes/auth.go
package routes

import (
	"errors"
	"net/http"
	"time"

	"crguide/crguide/config"
	"crguide/crguide/controllers"
	"crguide/crguide/middlewares"
	"crguide/crguide/sessions"
	"crguide/crguide/utils/logging"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func setSessionCookie(w http.ResponseWriter, r *http.Request, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if value == "" {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middlewares.SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func AuthRoutes(ctrl *controllers.AuthController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		sess, authURL := ctrl.StartLogin(middlewares.SessionFrom(r.Context()))
		token, err := ctrl.IssueToken(sess.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		setSessionCookie(w, r, token, cfg.SessionTTL)
		http.Redirect(w, r, authURL, http.StatusFound)
	})
	r.Get("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		err := ctrl.Callback(r.Context(), middlewares.SessionFrom(r.Context()), q.Get("code"), q.Get("state"), q.Get("error"))
		if errors.Is(err, sessions.ErrNotLoggedIn) {
			logging.AppLogger.Info("oauth callback without a session", zap.String("remote", r.RemoteAddr))
		}
		// failures are shown by the login page, which reads the gate's last error
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		ctrl.Logout(middlewares.SessionFrom(r.Context()))
		setSessionCookie(w, r, "", 0)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
	return r
}
