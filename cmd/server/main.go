package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/cors"

	"clipper/internal/application/clips"
	"clipper/internal/application/downloadqueue"
	"clipper/internal/application/transcribe"
	"clipper/internal/config"
	"clipper/internal/infrastructure/ffmpeg"
	"clipper/internal/infrastructure/filesystem"
	"clipper/internal/infrastructure/whisper"
	"clipper/internal/infrastructure/ytdlp"
	httptransport "clipper/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.NewLogger("info").Fatalf("config load failed: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel)

	store := filesystem.NewStore(cfg.StorageDir)
	if err := store.EnsureDir(); err != nil {
		logger.Fatalf("storage init failed: %v", err)
	}

	// One server per storage directory; a second instance would race the
	// drain loop over the same files.
	lock := flock.New(store.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		logger.Fatalf("storage lock failed: %v", err)
	}
	if !locked {
		logger.Fatalf("storage directory %s is already in use by another instance", cfg.StorageDir)
	}
	defer func() { _ = lock.Unlock() }()

	fetcher := ytdlp.NewClient(cfg.YtdlpPath, store)
	cutter := ffmpeg.NewCutter(cfg.FfmpegPath)
	stt := whisper.NewClient(cfg.TranscribeURL, cfg.TranscribeAPIKey, time.Duration(cfg.TranscribeTimeoutMin)*time.Minute)

	queueService := downloadqueue.NewService(fetcher, store, logger, time.Duration(cfg.DownloadTimeoutMin)*time.Minute)
	clipService := clips.NewService(store, cutter, logger, clips.Strategy(cfg.ClipStrategy), time.Duration(cfg.ClipTimeoutMin)*time.Minute)
	transcribeService := transcribe.NewService(store, cutter, stt, logger, "", time.Duration(cfg.TranscribeTimeoutMin)*time.Minute)

	handler := httptransport.NewHandler(queueService, clipService, transcribeService, store)
	router := httptransport.NewRouter(handler, cfg.StorageDir, logger)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
	})

	server := &http.Server{Addr: cfg.ServerAddr, Handler: c.Handler(router)}

	go func() {
		logger.Infof("server started on %s", cfg.ServerAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("shutdown failed: %v", err)
	}
}
