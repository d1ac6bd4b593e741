package routes

import (
	"net/http"

	"crguide/crguide/controllers"
	"crguide/crguide/middlewares"
	"crguide/crguide/utils/logging"
	"crguide/crguide/views"

	"go.uber.org/zap"
)

// IndexHandler shows the chat to signed-in sessions and the login page to everyone else.
func IndexHandler(ctrl *controllers.ChatController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		sess := middlewares.SessionFrom(r.Context())
		if sess == nil || !sess.Gate.LoggedIn() {
			if err := views.RenderLogin(w, ctrl.LoginPage(sess)); err != nil {
				logging.ErrorLogger.Error("render login", zap.Error(err))
			}
			return
		}
		page, err := ctrl.ChatPage(sess)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		if err := views.RenderChat(w, page); err != nil {
			logging.ErrorLogger.Error("render chat", zap.Error(err))
		}
	}
}
