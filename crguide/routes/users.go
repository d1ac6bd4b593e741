package routes

import (
	"net/http"

	"crguide/crguide/middlewares"

	"github.com/go-chi/chi/v5"
)

func UserRoutes() chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.RequireLogin)

		gr.Get("/me", handleJSON(func(r *http.Request) (any, int, error) {
			sess := middlewares.SessionFrom(r.Context())
			return sess.Gate.Profile().View(), http.StatusOK, nil
		}))
	})
	return r
}
