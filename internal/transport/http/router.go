package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter configures HTTP routes and static serving of the storage dir.
func NewRouter(handler *Handler, storageDir string, logger *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger(logger))

	r.HandleFunc("/health", handler.Health).Methods("GET")

	r.HandleFunc("/api/queue", handler.Enqueue).Methods("POST")
	r.HandleFunc("/api/queue", handler.QueueStatus).Methods("GET")
	r.HandleFunc("/api/queue/{id}", handler.CancelJob).Methods("DELETE")

	r.HandleFunc("/api/download", handler.DownloadNow).Methods("POST")
	r.HandleFunc("/api/clip", handler.ExtractClip).Methods("POST")
	r.HandleFunc("/api/transcribe", handler.Transcribe).Methods("POST")

	r.HandleFunc("/api/files", handler.ListFiles).Methods("GET")
	r.HandleFunc("/api/files/{filename}", handler.DeleteFile).Methods("DELETE")

	r.PathPrefix(filesURLPrefix).Handler(http.StripPrefix(filesURLPrefix, http.FileServer(http.Dir(storageDir))))
	return r
}
