package clips

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"clipper/internal/domain/fault"
)

type stubLibrary struct {
	source    string
	sourceErr error
	audio     string
	size      int64
	sizeErr   error
}

func (l *stubLibrary) LatestSource() (string, error) { return l.source, l.sourceErr }

func (l *stubLibrary) CompanionAudio(sourceName string) (string, bool) {
	return l.audio, l.audio != ""
}

func (l *stubLibrary) NewClipName(at time.Time) string { return "clip_123.mp4" }

func (l *stubLibrary) Path(name string) string { return "/store/" + name }

func (l *stubLibrary) Size(name string) (int64, error) { return l.size, l.sizeErr }

type stubCutter struct {
	copyCalls int
	muxCalls  int
	lastInput string
	lastAudio string
	err       error
}

func (c *stubCutter) CutCopy(ctx context.Context, inputPath, outputPath string, start, duration float64) error {
	c.copyCalls++
	c.lastInput = inputPath
	return c.err
}

func (c *stubCutter) CutMux(ctx context.Context, videoPath, audioPath, outputPath string, start, duration float64) error {
	c.muxCalls++
	c.lastInput = videoPath
	c.lastAudio = audioPath
	return c.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestExtract_InvalidRangeFailsBeforeSpawning(t *testing.T) {
	cutter := &stubCutter{}
	svc := NewService(&stubLibrary{source: "video_1.mp4", size: 1}, cutter, testLogger(), StrategyCopy, 0)

	for _, tc := range []struct{ start, end float64 }{
		{10, 10},
		{40, 10},
		{-1, 10},
	} {
		_, err := svc.Extract(context.Background(), tc.start, tc.end)
		var validation *fault.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("expected ValidationError for [%v, %v), got %v", tc.start, tc.end, err)
		}
	}
	if cutter.copyCalls+cutter.muxCalls != 0 {
		t.Fatalf("invalid range must not spawn the tool")
	}
}

func TestExtract_NoSourceIsNotFound(t *testing.T) {
	svc := NewService(&stubLibrary{sourceErr: fault.NotFound("no source video")}, &stubCutter{}, testLogger(), StrategyCopy, 0)

	_, err := svc.Extract(context.Background(), 10, 40)
	var notFound *fault.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestExtract_CopiesLatestSource(t *testing.T) {
	cutter := &stubCutter{}
	svc := NewService(&stubLibrary{source: "video_1000.mp4", size: 4096}, cutter, testLogger(), StrategyCopy, 0)

	result, err := svc.Extract(context.Background(), 10, 40)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if cutter.copyCalls != 1 || !strings.HasSuffix(cutter.lastInput, "video_1000.mp4") {
		t.Fatalf("expected one copy cut of the source, got %+v", cutter)
	}
	if result.Filename != "clip_123.mp4" || result.Size != 4096 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestExtract_MuxStrategyUsesCompanionAudio(t *testing.T) {
	cutter := &stubCutter{}
	library := &stubLibrary{source: "video_1000.mp4", audio: "audio_1000.m4a", size: 1}
	svc := NewService(library, cutter, testLogger(), StrategyMux, 0)

	if _, err := svc.Extract(context.Background(), 0, 5); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if cutter.muxCalls != 1 || !strings.HasSuffix(cutter.lastAudio, "audio_1000.m4a") {
		t.Fatalf("expected mux cut with companion audio, got %+v", cutter)
	}
}

func TestExtract_MuxStrategyFallsBackWithoutAudio(t *testing.T) {
	cutter := &stubCutter{}
	svc := NewService(&stubLibrary{source: "video_1000.mp4", size: 1}, cutter, testLogger(), StrategyMux, 0)

	if _, err := svc.Extract(context.Background(), 0, 5); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if cutter.copyCalls != 1 || cutter.muxCalls != 0 {
		t.Fatalf("expected copy fallback, got %+v", cutter)
	}
}

func TestExtract_ToolFailureSurfacesProcessError(t *testing.T) {
	code := 1
	cutter := &stubCutter{err: &fault.ProcessError{ExitCode: &code, Detail: "invalid stream"}}
	svc := NewService(&stubLibrary{source: "video_1.mp4"}, cutter, testLogger(), StrategyCopy, 0)

	_, err := svc.Extract(context.Background(), 0, 5)
	var procErr *fault.ProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("expected ProcessError, got %v", err)
	}
	if procErr.ExitCode == nil || *procErr.ExitCode != 1 {
		t.Fatalf("expected exit code 1, got %+v", procErr)
	}
}

func TestExtract_MissingOutputIsFilesystemError(t *testing.T) {
	library := &stubLibrary{source: "video_1.mp4", sizeErr: fault.NotFound("file clip_123.mp4 not found")}
	svc := NewService(library, &stubCutter{}, testLogger(), StrategyCopy, 0)

	_, err := svc.Extract(context.Background(), 0, 5)
	var fsErr *fault.FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("expected FilesystemError, got %v", err)
	}
}
