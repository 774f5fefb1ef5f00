package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/V4T54L/restnav/internal/domain"
)

const maxTrackBodySize = 64 << 10

// LogViewer is the read and control surface of the event log.
type LogViewer interface {
	Entries(state string) ([]domain.EntrySnapshot, error)
	Entry(id string) (domain.EntrySnapshot, bool)
	Track(url, subType string) domain.EntrySnapshot
	CloseView(title string) error
	Reset()
}

// TrackRequest is the body of POST /entries.
type TrackRequest struct {
	URL     string `json:"url"`
	SubType string `json:"subtype"`
}

// LogHandler handles HTTP requests for the event log.
type LogHandler struct {
	uc     LogViewer
	logger *slog.Logger
}

// NewLogHandler creates a new LogHandler.
func NewLogHandler(uc LogViewer, logger *slog.Logger) *LogHandler {
	return &LogHandler{uc: uc, logger: logger}
}

// HealthCheck is a simple health check endpoint.
func (h *LogHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListEntries returns the log, optionally filtered by state.
// GET /entries?state=RUNNING
func (h *LogHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.uc.Entries(r.URL.Query().Get("state"))
	if err != nil {
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.respondWithJSON(w, http.StatusOK, entries)
}

// GetEntry returns a single entry.
// GET /entries/{id}
func (h *LogHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.uc.Entry(r.PathValue("id"))
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	h.respondWithJSON(w, http.StatusOK, entry)
}

// TrackEntry appends a tracking placeholder.
// POST /entries
func (h *LogHandler) TrackEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTrackBodySize)

	var payload TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request: Failed to decode JSON", http.StatusBadRequest)
		return
	}
	if payload.URL == "" {
		http.Error(w, "Bad Request: url is required", http.StatusBadRequest)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, h.uc.Track(payload.URL, payload.SubType))
}

// CloseView schedules closing an open view.
// POST /views/{title}/close
func (h *LogHandler) CloseView(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	if err := h.uc.CloseView(title); err != nil {
		if errors.Is(err, domain.ErrViewNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to close view", "title", title, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.respondWithJSON(w, http.StatusAccepted, map[string]string{"closing": title})
}

// Reset schedules clearing the log.
// POST /reset
func (h *LogHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.uc.Reset()
	w.WriteHeader(http.StatusAccepted)
}

func (h *LogHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
