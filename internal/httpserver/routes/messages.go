package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/mw"
)

func init() { Register(registerMessages) }

// Message routes may wait on the token broker or the Docs API: no timeout.
func registerMessages(r chi.Router, d deps.Deps) {
	r.With(mw.RateLimit(d.RateLimit)).Post("/api/messages/{action}", handlers.Message(d))
	r.With(mw.RateLimit(d.RateLimit)).Post("/api/poll", handlers.Poll(d))
}
