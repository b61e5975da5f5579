package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
	"github.com/MrSnakeDoc/clipdoc/internal/messaging"
)

func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Store.Settings(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// PutSettings saves the fields present in the body. A document URL is
// reduced to its id.
func PutSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var upd messaging.SettingsUpdate
		if err := decodeJSON(w, r, &upd); err != nil {
			writeError(w, http.StatusBadRequest, "invalid settings body")
			return
		}

		if upd.DocumentID != nil {
			id, err := domain.ParseDocumentID(*upd.DocumentID)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			if err := d.Store.SaveDocumentID(ctx, id); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			d.Logger.Info("document id saved", logger.String("doc_id", id))
		}

		if upd.IncludeSourceURLs != nil {
			if err := d.Store.SaveIncludeSourceURLs(ctx, *upd.IncludeSourceURLs); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			d.Logger.Info("source preference saved", logger.Bool("include_source_urls", *upd.IncludeSourceURLs))
		}

		s, err := d.Store.Settings(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// PutActiveTab records the browser's active tab.
func PutActiveTab(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tab domain.Tab
		if err := decodeJSON(w, r, &tab); err != nil {
			writeError(w, http.StatusBadRequest, "invalid tab body")
			return
		}
		d.Tabs.SetActive(tab)
		w.WriteHeader(http.StatusNoContent)
	}
}
