package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipdoc/internal/notify"
	"github.com/MrSnakeDoc/clipdoc/internal/observer"
)

type contextResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

type selectionRequest struct {
	Selection string `json:"selection"`
}

type notificationResponse struct {
	Visible      bool                 `json:"visible"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// OpenContext registers a browsing context.
func OpenContext(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var page domain.Tab
		if err := decodeJSON(w, r, &page); err != nil {
			writeError(w, http.StatusBadRequest, "invalid context body")
			return
		}
		o := d.Contexts.Open(page)
		writeJSON(w, http.StatusCreated, contextResponse{ID: o.ID(), URL: page.URL, Title: page.Title})
	}
}

func CloseContext(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Contexts.Remove(chi.URLParam(r, "id")) {
			writeError(w, http.StatusNotFound, "unknown context")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// withObserver resolves {id} or answers 404.
func withObserver(d deps.Deps, fn func(w http.ResponseWriter, r *http.Request, o *observer.Observer)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := d.Contexts.Get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown context")
			return
		}
		fn(w, r, o)
	}
}

func writeNotification(w http.ResponseWriter, o *observer.Observer) {
	n, ok := o.Notification()
	if !ok {
		writeJSON(w, http.StatusOK, notificationResponse{})
		return
	}
	writeJSON(w, http.StatusOK, notificationResponse{Visible: true, Notification: &n})
}

// ContextCopy handles a copy event and answers with the resulting
// notification. The delivery is not cancelled if the caller goes away.
func ContextCopy(d deps.Deps) http.HandlerFunc {
	return withObserver(d, func(w http.ResponseWriter, r *http.Request, o *observer.Observer) {
		var body selectionRequest
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid copy body")
			return
		}
		o.OnCopy(context.WithoutCancel(r.Context()), body.Selection)
		writeNotification(w, o)
	})
}

// ContextShortcut schedules a copy after the settle delay.
func ContextShortcut(d deps.Deps) http.HandlerFunc {
	return withObserver(d, func(w http.ResponseWriter, r *http.Request, o *observer.Observer) {
		var body selectionRequest
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid shortcut body")
			return
		}
		selection := body.Selection
		o.OnShortcut(r.Context(), func() string { return selection })
		w.WriteHeader(http.StatusAccepted)
	})
}

func ContextFocus(d deps.Deps, active bool) http.HandlerFunc {
	return withObserver(d, func(w http.ResponseWriter, r *http.Request, o *observer.Observer) {
		o.SetActive(active)
		w.WriteHeader(http.StatusNoContent)
	})
}

func ContextNotification(d deps.Deps) http.HandlerFunc {
	return withObserver(d, func(w http.ResponseWriter, r *http.Request, o *observer.Observer) {
		writeNotification(w, o)
	})
}
