package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/mw"
)

func init() { Register(registerContexts) }

func registerContexts(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(short(d))
		r.Post("/api/contexts", handlers.OpenContext(d))
		r.Delete("/api/contexts/{id}", handlers.CloseContext(d))
		r.Get("/api/contexts/{id}/notification", handlers.ContextNotification(d))
		r.Post("/api/contexts/{id}/focus", handlers.ContextFocus(d, true))
		r.Post("/api/contexts/{id}/blur", handlers.ContextFocus(d, false))
		r.Post("/api/contexts/{id}/shortcut", handlers.ContextShortcut(d))
	})

	// copy waits for the owner's reply
	r.With(mw.RateLimit(d.RateLimit)).Post("/api/contexts/{id}/copy", handlers.ContextCopy(d))
}
