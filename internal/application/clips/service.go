package clips

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"clipper/internal/domain/fault"
)

// Strategy selects how a clip is cut from its source.
type Strategy string

const (
	// StrategyCopy stream-copies the single source container.
	StrategyCopy Strategy = "copy"
	// StrategyMux additionally merges a matching separate audio file when
	// one was downloaded alongside the source.
	StrategyMux Strategy = "mux"
)

// Result describes a finished clip extraction.
type Result struct {
	Filename string
	Size     int64
}

// Service cuts time-bounded clips from the most recently downloaded source.
type Service struct {
	library  Library
	cutter   Cutter
	logger   *logrus.Logger
	strategy Strategy
	timeout  time.Duration
}

// NewService creates the clip extraction service. Unknown strategies fall
// back to stream copy.
func NewService(library Library, cutter Cutter, logger *logrus.Logger, strategy Strategy, timeout time.Duration) *Service {
	if strategy != StrategyMux {
		strategy = StrategyCopy
	}
	return &Service{library: library, cutter: cutter, logger: logger, strategy: strategy, timeout: timeout}
}

// Extract validates the range, picks the latest source by naming
// convention, and invokes the transcoding tool with stream-copy flags.
// The range is validated before any subprocess is spawned.
func (s *Service) Extract(ctx context.Context, start, end float64) (Result, error) {
	if start < 0 || end <= start {
		return Result{}, fault.Validation("invalid clip range [%v, %v)", start, end)
	}

	source, err := s.library.LatestSource()
	if err != nil {
		return Result{}, err
	}

	output := s.library.NewClipName(time.Now())
	duration := end - start

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if audio, ok := s.companion(source); ok {
		err = s.cutter.CutMux(ctx, s.library.Path(source), s.library.Path(audio), s.library.Path(output), start, duration)
	} else {
		err = s.cutter.CutCopy(ctx, s.library.Path(source), s.library.Path(output), start, duration)
	}
	if err != nil {
		return Result{}, err
	}

	size, err := s.library.Size(output)
	if err != nil {
		return Result{}, &fault.FilesystemError{Msg: "clip tool succeeded but output is missing", Err: err}
	}

	s.logger.WithFields(logrus.Fields{"source": source, "clip": output, "bytes": size}).Info("clip extracted")
	return Result{Filename: output, Size: size}, nil
}

func (s *Service) companion(source string) (string, bool) {
	if s.strategy != StrategyMux {
		return "", false
	}
	return s.library.CompanionAudio(source)
}
