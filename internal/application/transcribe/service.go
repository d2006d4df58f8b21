package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"clipper/internal/domain/caption"
	"clipper/internal/domain/fault"
)

// Result is a finished transcription: the full text plus the word stream
// chunked into display captions.
type Result struct {
	Text     string
	Captions []caption.Caption
}

// Service extracts an audio sub-range from the latest source and turns the
// speech-to-text word timestamps into captions. The three failure kinds
// stay distinct for callers: no source media (NotFoundError), extraction
// failure (ProcessError), and service failure (ExternalServiceError).
type Service struct {
	library     Library
	extractor   Extractor
	transcriber Transcriber
	logger      *logrus.Logger
	tmpDir      string
	timeout     time.Duration
}

// NewService creates the transcription pipeline. An empty tmpDir uses the
// system temp directory for intermediate audio segments.
func NewService(library Library, extractor Extractor, transcriber Transcriber, logger *logrus.Logger, tmpDir string, timeout time.Duration) *Service {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Service{
		library:     library,
		extractor:   extractor,
		transcriber: transcriber,
		logger:      logger,
		tmpDir:      tmpDir,
		timeout:     timeout,
	}
}

// Transcribe runs the pipeline for [start, end). The temporary audio
// segment is removed on every exit path, success or failure.
func (s *Service) Transcribe(ctx context.Context, start, end float64) (Result, error) {
	if start < 0 || end <= start {
		return Result{}, fault.Validation("invalid transcription range [%v, %v)", start, end)
	}

	source, err := s.library.LatestSource()
	if err != nil {
		return Result{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	audioPath := filepath.Join(s.tmpDir, "audio_"+uuid.NewString()+".mp3")
	defer func() {
		if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
			s.logger.WithField("path", audioPath).Warn("temp audio segment not removed")
		}
	}()

	if err := s.extractor.CutAudio(ctx, s.library.Path(source), audioPath, start, end-start); err != nil {
		return Result{}, err
	}

	text, words, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return Result{}, err
	}

	captions := caption.Chunk(words, caption.DefaultChunkSize)
	s.logger.WithFields(logrus.Fields{"source": source, "words": len(words), "captions": len(captions)}).Info("segment transcribed")
	return Result{Text: text, Captions: captions}, nil
}
