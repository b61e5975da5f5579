package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
	"github.com/MrSnakeDoc/clipdoc/internal/messaging"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: now().Sub(start).Seconds(),
		})
	}
}

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Store string `json:"store"`
	Error string `json:"error,omitempty"`
}

// Readyz reports whether the settings store answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.Store.Ping(ctx); err != nil {
			d.Logger.Warn("store not ready", logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Store: "down", Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Store: "ok"})
	}
}

// Status reports session, settings, the shared last copied record and the
// owner's last delivery.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		settings, err := d.Store.Settings(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		last, err := d.Store.LastCopied(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		st := messaging.Status{
			State:             d.Session.State().String(),
			Authorized:        d.Session.Authorized(),
			DocumentID:        settings.DocumentID,
			IncludeSourceURLs: settings.IncludeSourceURLs,
			LastCopiedText:    last.Text,
			LastCopyTime:      last.At,
			Contexts:          d.Contexts.Len(),
			Version:           d.Version,
		}
		if d.Deliveries != nil {
			if rec, ok := d.Deliveries.LastDelivered(); ok {
				st.LastDeliveredText, st.LastDeliveredAt = rec.Text, rec.At
			}
			st.Delivering = d.Deliveries.Delivering()
		}
		writeJSON(w, http.StatusOK, st)
	}
}
