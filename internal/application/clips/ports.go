package clips

import (
	"context"
	"time"
)

// Library is the application port for source selection and clip naming.
type Library interface {
	LatestSource() (string, error)
	CompanionAudio(sourceName string) (string, bool)
	NewClipName(at time.Time) string
	Path(name string) string
	Size(name string) (int64, error)
}

// Cutter is the application port for the external transcoding tool.
type Cutter interface {
	CutCopy(ctx context.Context, inputPath, outputPath string, start, duration float64) error
	CutMux(ctx context.Context, videoPath, audioPath, outputPath string, start, duration float64) error
}
