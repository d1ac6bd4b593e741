package routes

import (
	"crguide/crguide/config"
	"crguide/crguide/controllers"
	"crguide/crguide/middlewares"
	"crguide/crguide/sessions"
	"crguide/crguide/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Config   config.Config
	Sessions *sessions.Manager
	Auth     *controllers.AuthController
	Chat     *controllers.ChatController
	Health   *controllers.HealthController
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.SessionMiddleware(d.Config, d.Sessions))

	r.Get("/", IndexHandler(d.Chat))
	r.Mount("/auth", AuthRoutes(d.Auth, d.Config))
	r.Mount("/chat", ChatRoutes(d.Chat))
	r.Mount("/users", UserRoutes())
	r.Mount("/health", HealthRoutes(d.Health))
	return r
}
