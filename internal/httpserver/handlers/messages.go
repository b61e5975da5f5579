package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
	"github.com/MrSnakeDoc/clipdoc/internal/messaging"
	"github.com/MrSnakeDoc/clipdoc/internal/scheduler"
)

var knownActions = map[messaging.Action]bool{
	messaging.ActionAuthorize:   true,
	messaging.ActionClearAuth:   true,
	messaging.ActionTextCopied:  true,
	messaging.ActionManualPaste: true,
}

// Message delivers one request to the delivery owner and writes its reply.
// Outcomes, including failures, are 200 with a Response body.
func Message(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := messaging.Action(chi.URLParam(r, "action"))
		if !knownActions[action] {
			writeError(w, http.StatusNotFound, "unknown action: "+string(action))
			return
		}

		var req messaging.Request
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid message body")
			return
		}
		req.Action = action

		resp, err := messaging.Dispatch(r.Context(), d.Owner, req)
		if err != nil {
			d.Logger.Error("message dispatch failed",
				logger.String("action", string(action)),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Poll triggers the background clipboard poller.
func Poll(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.PollTrigger == nil {
			writeError(w, http.StatusConflict, "clipboard watcher is disabled")
			return
		}

		if scheduler.Trigger(d.PollTrigger) {
			d.Logger.Info("manual poll triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			return
		}

		d.Logger.Warn("poll already pending", logger.String("remote_ip", r.RemoteAddr))
		writeError(w, http.StatusTooManyRequests, "poll already pending, please wait")
	}
}
