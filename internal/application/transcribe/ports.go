package transcribe

import (
	"context"

	"clipper/internal/domain/caption"
)

// Library resolves the latest source file for audio extraction.
type Library interface {
	LatestSource() (string, error)
	Path(name string) string
}

// Extractor is the application port for audio sub-range extraction.
type Extractor interface {
	CutAudio(ctx context.Context, inputPath, outputPath string, start, duration float64) error
}

// Transcriber is the application port for the speech-to-text service.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, []caption.Word, error)
}
