package ffmpeg

import (
	"context"
	"fmt"

	"clipper/internal/infrastructure/procrun"
)

// Cutter wraps ffmpeg invocations for clip and audio extraction.
type Cutter struct {
	Bin string
}

// NewCutter creates an ffmpeg adapter using the given executable path.
func NewCutter(bin string) *Cutter {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Cutter{Bin: bin}
}

// CutCopy extracts [start, start+duration) from input into output using
// stream copy, no re-encode.
func (c *Cutter) CutCopy(ctx context.Context, inputPath, outputPath string, start, duration float64) error {
	return procrun.Run(ctx, procrun.Spec{
		Command: c.Bin,
		Args:    copyArgs(inputPath, outputPath, start, duration),
	})
}

// CutMux extracts the same range from a video file and its separate audio
// file, stream-copying both into one container.
func (c *Cutter) CutMux(ctx context.Context, videoPath, audioPath, outputPath string, start, duration float64) error {
	return procrun.Run(ctx, procrun.Spec{
		Command: c.Bin,
		Args:    muxArgs(videoPath, audioPath, outputPath, start, duration),
	})
}

// CutAudio extracts the range as compressed audio only, at a fixed
// quality, for transcription upload.
func (c *Cutter) CutAudio(ctx context.Context, inputPath, outputPath string, start, duration float64) error {
	return procrun.Run(ctx, procrun.Spec{
		Command: c.Bin,
		Args:    audioArgs(inputPath, outputPath, start, duration),
	})
}

func copyArgs(inputPath, outputPath string, start, duration float64) []string {
	return []string{
		"-y",
		"-ss", seconds(start),
		"-i", inputPath,
		"-t", seconds(duration),
		"-c", "copy",
		outputPath,
	}
}

func muxArgs(videoPath, audioPath, outputPath string, start, duration float64) []string {
	return []string{
		"-y",
		"-ss", seconds(start),
		"-i", videoPath,
		"-ss", seconds(start),
		"-i", audioPath,
		"-t", seconds(duration),
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c", "copy",
		outputPath,
	}
}

func audioArgs(inputPath, outputPath string, start, duration float64) []string {
	return []string{
		"-y",
		"-ss", seconds(start),
		"-i", inputPath,
		"-t", seconds(duration),
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "4",
		outputPath,
	}
}

func seconds(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
