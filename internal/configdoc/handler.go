package configdoc

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/getsentry/sentry-go"
)

const maxDocumentBytes = 1 << 20

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.store.List()
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "documents": infos})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.Get(r.PathValue("name"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidName):
			writeError(w, http.StatusBadRequest, "invalid document name")
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "document not found")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to read document")
		}
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if len(content) == 0 {
		writeError(w, http.StatusBadRequest, "document is empty")
		return
	}

	name := r.PathValue("name")
	if err := h.store.Put(name, content); err != nil {
		switch {
		case errors.Is(err, ErrInvalidName):
			writeError(w, http.StatusBadRequest, "invalid document name")
		case errors.Is(err, ErrInvalidYAML):
			writeError(w, http.StatusUnprocessableEntity, "document is not valid yaml")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to store document")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": name})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.PathValue("name")); err != nil {
		switch {
		case errors.Is(err, ErrInvalidName):
			writeError(w, http.StatusBadRequest, "invalid document name")
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "document not found")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to delete document")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
