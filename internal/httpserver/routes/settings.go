package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/handlers"
)

func init() { Register(registerSettings) }

func registerSettings(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(short(d))
		r.Get("/api/settings", handlers.GetSettings(d))
		r.Put("/api/settings", handlers.PutSettings(d))
		r.Put("/api/tabs/active", handlers.PutActiveTab(d))
	})
}
