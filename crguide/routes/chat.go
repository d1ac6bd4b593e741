package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"crguide/crguide/controllers"
	"crguide/crguide/middlewares"
	"crguide/crguide/sessions"
	"crguide/crguide/utils/logging"
	"crguide/crguide/utils/types"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// generic wrapper to reduce boilerplate
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			writeJSONError(w, status, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(res)
	}
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sessions.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, controllers.ErrEmptyDraft), errors.Is(err, controllers.ErrBadFeedback):
		return http.StatusBadRequest
	case errors.Is(err, controllers.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, controllers.ErrFeedbackDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// readContent accepts {"content": ...} JSON or a form field named content.
func readContent(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req types.SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", err
		}
		return req.Content, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return r.FormValue("content"), nil
}

// wsSnapshot is pushed to the browser after every change to the conversation.
type wsSnapshot struct {
	HTML     string `json:"html"`
	Typing   bool   `json:"typing"`
	Draft    string `json:"draft"`
	Messages int    `json:"messages"`
}

func ChatRoutes(ctrl *controllers.ChatController) chi.Router {
	r := chi.NewRouter()

	// send and draft serve both the page's fetch calls and plain form posts
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.RequireLoginAny)

		gr.Post("/send", func(w http.ResponseWriter, r *http.Request) {
			sess := middlewares.SessionFrom(r.Context())
			content, err := readContent(r)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, err)
				return
			}
			snap, err := ctrl.Send(r.Context(), sess, content)
			if !middlewares.WantsJSON(r) {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			if err != nil {
				writeJSONError(w, statusFor(err), err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(snap)
		})

		gr.Post("/draft", func(w http.ResponseWriter, r *http.Request) {
			sess := middlewares.SessionFrom(r.Context())
			content, err := readContent(r)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, err)
				return
			}
			snap, err := ctrl.SetDraft(sess, content)
			if !middlewares.WantsJSON(r) {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			if err != nil {
				writeJSONError(w, statusFor(err), err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(snap)
		})
	})

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.RequireLogin)

		gr.Get("/messages", handleJSON(func(r *http.Request) (any, int, error) {
			snap, err := ctrl.Snapshot(middlewares.SessionFrom(r.Context()))
			if err != nil {
				return nil, statusFor(err), err
			}
			return snap, http.StatusOK, nil
		}))

		gr.Post("/feedback", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.FeedbackRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			key, err := ctrl.Feedback(r.Context(), middlewares.SessionFrom(r.Context()), req)
			if err != nil {
				return nil, statusFor(err), err
			}
			return map[string]string{"key": key}, http.StatusCreated, nil
		}))

		gr.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			sess := middlewares.SessionFrom(r.Context())
			store, _, err := sess.Conversation()
			if err != nil {
				writeJSONError(w, statusFor(err), err)
				return
			}
			conn, err := websocket.Accept(w, r, nil)
			if err != nil {
				logging.ErrorLogger.Error("websocket accept error", zap.Error(err))
				return
			}
			defer conn.CloseNow()

			// CloseRead ends ctx once the browser goes away
			ctx := conn.CloseRead(r.Context())
			updates, cancel := store.Subscribe()
			defer cancel()

			push := func() error {
				snap := store.Snapshot()
				html, err := ctrl.Fragment(snap)
				if err != nil {
					return err
				}
				return wsjson.Write(ctx, conn, wsSnapshot{HTML: html, Typing: snap.Typing, Draft: snap.Draft, Messages: len(snap.Messages)})
			}
			if err := push(); err != nil {
				return
			}
			for {
				select {
				case <-ctx.Done():
					conn.Close(websocket.StatusNormalClosure, "")
					return
				case <-updates:
					if err := push(); err != nil {
						logging.ErrorLogger.Error("websocket write error", zap.Error(err))
						return
					}
				}
			}
		})
	})
	return r
}
