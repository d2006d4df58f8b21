package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"clipper/internal/application/clips"
	"clipper/internal/application/transcribe"
	"clipper/internal/domain/download"
	"clipper/internal/domain/fault"
	"clipper/internal/infrastructure/filesystem"
)

// filesURLPrefix is where the storage directory is served statically.
const filesURLPrefix = "/files/"

type queueUseCases interface {
	Enqueue(rawURL, title string) (string, int, error)
	Snapshot() download.Snapshot
	Cancel(jobID string) bool
	DownloadNow(ctx context.Context, rawURL string) (string, int64, error)
}

type clipUseCases interface {
	Extract(ctx context.Context, start, end float64) (clips.Result, error)
}

type transcribeUseCases interface {
	Transcribe(ctx context.Context, start, end float64) (transcribe.Result, error)
}

type fileStore interface {
	List() ([]filesystem.File, error)
	Delete(name string) error
}

// Handler wires HTTP handlers with application use cases.
type Handler struct {
	queue       queueUseCases
	clips       clipUseCases
	transcriber transcribeUseCases
	store       fileStore
}

// NewHandler creates the transport handler set.
func NewHandler(queue queueUseCases, clipService clipUseCases, transcriber transcribeUseCases, store fileStore) *Handler {
	return &Handler{queue: queue, clips: clipService, transcriber: transcriber, store: store}
}

type enqueueRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Enqueue handles POST /api/queue.
func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid request body"))
		return
	}

	id, position, err := h.queue.Enqueue(req.URL, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":            id,
		"queuePosition": position,
	})
}

// QueueStatus handles GET /api/queue, polled by clients.
func (h *Handler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.queue.Snapshot())
}

// CancelJob handles DELETE /api/queue/{id}.
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.queue.Cancel(id) {
		writeError(w, fault.NotFound("job %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type downloadRequest struct {
	URL string `json:"url"`
}

// DownloadNow handles POST /api/download, the legacy synchronous path that
// blocks until the retrieval tool finishes.
func (h *Handler) DownloadNow(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid request body"))
		return
	}

	filename, size, err := h.queue.DownloadNow(r.Context(), req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filename":  filename,
		"url":       filesURLPrefix + filename,
		"sizeBytes": size,
	})
}

type rangeRequest struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// ExtractClip handles POST /api/clip.
func (h *Handler) ExtractClip(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid request body"))
		return
	}

	result, err := h.clips.Extract(r.Context(), req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filename":  result.Filename,
		"url":       filesURLPrefix + result.Filename,
		"sizeBytes": result.Size,
	})
}

// Transcribe handles POST /api/transcribe.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid request body"))
		return
	}

	result, err := h.transcriber.Transcribe(r.Context(), req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"text":     result.Text,
		"captions": result.Captions,
	})
}

// ListFiles handles GET /api/files.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.store.List()
	if err != nil {
		writeError(w, err)
		return
	}

	entries := make([]map[string]interface{}, 0, len(files))
	for _, f := range files {
		entries = append(entries, map[string]interface{}{
			"filename":  f.Name,
			"sizeBytes": f.Size,
			"url":       filesURLPrefix + f.Name,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": entries})
}

// DeleteFile handles DELETE /api/files/{filename}.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(mux.Vars(r)["filename"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
