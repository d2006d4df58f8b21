package downloadqueue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"clipper/internal/domain/download"
	"clipper/internal/domain/fault"
)

// Service owns the FIFO acquisition queue and drains it one job at a time.
// The queue slice is the single source of truth: the active job is its
// head, never a separate pointer.
type Service struct {
	fetcher Fetcher
	library Library
	logger  *logrus.Logger
	timeout time.Duration

	validate *validator.Validate

	mu       sync.Mutex
	queue    []*download.Job
	draining bool
	lastID   int64
}

// NewService creates the queue manager. A zero timeout disables the
// per-download deadline.
func NewService(fetcher Fetcher, library Library, logger *logrus.Logger, timeout time.Duration) *Service {
	return &Service{
		fetcher:  fetcher,
		library:  library,
		logger:   logger,
		timeout:  timeout,
		validate: validator.New(),
	}
}

// Enqueue validates the URL, appends a queued job, and starts the drain
// loop if it is not already running. It returns the job id and its 1-based
// queue position without waiting for completion.
func (s *Service) Enqueue(rawURL, title string) (string, int, error) {
	if err := s.validate.Var(rawURL, "required,url"); err != nil {
		return "", 0, fault.Validation("invalid url %q", rawURL)
	}
	if title == "" {
		title = rawURL
	}

	s.mu.Lock()
	job := &download.Job{
		ID:        s.nextIDLocked(),
		SourceURL: rawURL,
		Title:     title,
		Status:    download.StatusQueued,
		CreatedAt: time.Now(),
	}
	s.queue = append(s.queue, job)
	position := len(s.queue)
	start := !s.draining
	if start {
		s.draining = true
	}
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"job_id": job.ID, "url": rawURL}).Info("download queued")
	if start {
		go s.drain()
	}
	return job.ID, position, nil
}

// nextIDLocked issues a time-based id that stays strictly increasing even
// when two jobs land in the same millisecond. Caller holds s.mu.
func (s *Service) nextIDLocked() string {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// Snapshot returns a copy of the current queue state for polling clients.
func (s *Service) Snapshot() download.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := download.Snapshot{Draining: s.draining, Pending: make([]download.Job, 0, len(s.queue))}
	for i, job := range s.queue {
		if i == 0 && job.Status == download.StatusDownloading {
			active := *job
			snap.Active = &active
			continue
		}
		snap.Pending = append(snap.Pending, *job)
	}
	return snap
}

// Cancel removes the job with the given id from the queue. Cancelling the
// job that is currently downloading only removes its queue entry; the
// in-flight subprocess is left to finish on its own.
func (s *Service) Cancel(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, job := range s.queue {
		if job.ID == jobID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.logger.WithField("job_id", jobID).Info("download cancelled")
			return true
		}
	}
	return false
}

// DownloadNow performs the legacy synchronous download path: it bypasses
// the queue, blocks until the tool finishes, and returns the stored file
// and its size.
func (s *Service) DownloadNow(ctx context.Context, rawURL string) (string, int64, error) {
	if err := s.validate.Var(rawURL, "required,url"); err != nil {
		return "", 0, fault.Validation("invalid url %q", rawURL)
	}

	s.mu.Lock()
	id := s.nextIDLocked()
	s.mu.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filename, err := s.fetcher.Fetch(ctx, id, rawURL, nil)
	if err != nil {
		return "", 0, err
	}
	size, err := s.library.Size(filename)
	if err != nil {
		return "", 0, err
	}
	return filename, size, nil
}

// drain processes jobs off the head of the queue until it is empty. At
// most one drain goroutine runs at a time: the draining flag is only set
// under the mutex by Enqueue and only cleared here when the queue empties.
func (s *Service) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		job := s.queue[0]
		job.Status = download.StatusDownloading
		s.mu.Unlock()

		ctx, cancel := s.withTimeout(context.Background())
		filename, err := s.fetcher.Fetch(ctx, job.ID, job.SourceURL, func(percent float64) {
			s.mu.Lock()
			job.Progress = percent
			s.mu.Unlock()
		})
		cancel()

		s.mu.Lock()
		if err != nil {
			job.Status = download.StatusFailed
			job.LastError = err.Error()
		} else {
			job.Status = download.StatusComplete
			job.ResultFilename = filename
			job.Progress = 100
		}
		// The job may already be gone if it was soft-cancelled mid-download.
		for i, queued := range s.queue {
			if queued == job {
				s.queue = append(s.queue[:i], s.queue[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		entry := s.logger.WithFields(logrus.Fields{"job_id": job.ID, "url": job.SourceURL})
		if err != nil {
			entry.WithField("error", err.Error()).Error("download failed")
		} else {
			entry.WithField("file", filename).Info("download complete")
		}
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
