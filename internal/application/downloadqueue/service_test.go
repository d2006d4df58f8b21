package downloadqueue

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"clipper/internal/domain/download"
	"clipper/internal/domain/fault"
)

// stubFetcher blocks each Fetch until the test sends its outcome on
// release, so tests control exactly when a download finishes.
type stubFetcher struct {
	mu      sync.Mutex
	calls   []string
	started chan string
	release chan error
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		started: make(chan string, 16),
		release: make(chan error),
	}
}

func (f *stubFetcher) Fetch(ctx context.Context, jobID, url string, onProgress func(float64)) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	f.started <- jobID
	if err := <-f.release; err != nil {
		return "", err
	}
	if onProgress != nil {
		onProgress(100)
	}
	return "video_" + jobID + ".mp4", nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type stubLibrary struct {
	size int64
	err  error
}

func (l *stubLibrary) Size(name string) (int64, error) { return l.size, l.err }

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func waitStarted(t *testing.T, f *stubFetcher) string {
	t.Helper()
	select {
	case id := <-f.started:
		return id
	case <-time.After(2 * time.Second):
		t.Fatalf("no download started before deadline")
		return ""
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestEnqueue_DrainsFIFOWithSingleActiveJob(t *testing.T) {
	fetcher := newStubFetcher()
	svc := NewService(fetcher, &stubLibrary{size: 1}, testLogger(), 0)

	idA, posA, err := svc.Enqueue("https://example.com/a", "first")
	if err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	idB, posB, err := svc.Enqueue("https://example.com/b", "second")
	if err != nil {
		t.Fatalf("enqueue b: %v", err)
	}
	if posA != 1 || posB != 2 {
		t.Fatalf("unexpected queue positions %d, %d", posA, posB)
	}
	if idA == idB {
		t.Fatalf("job ids must be distinguishable, both %s", idA)
	}

	if started := waitStarted(t, fetcher); started != idA {
		t.Fatalf("expected %s to start first, got %s", idA, started)
	}
	snap := svc.Snapshot()
	if snap.Active == nil || snap.Active.ID != idA || snap.Active.Status != download.StatusDownloading {
		t.Fatalf("expected %s active and downloading, got %+v", idA, snap.Active)
	}
	if len(snap.Pending) != 1 || snap.Pending[0].ID != idB || snap.Pending[0].Status != download.StatusQueued {
		t.Fatalf("expected %s pending, got %+v", idB, snap.Pending)
	}

	fetcher.release <- nil

	if started := waitStarted(t, fetcher); started != idB {
		t.Fatalf("expected %s to start second, got %s", idB, started)
	}
	snap = svc.Snapshot()
	if snap.Active == nil || snap.Active.ID != idB {
		t.Fatalf("expected %s active, got %+v", idB, snap.Active)
	}
	if len(snap.Pending) != 0 {
		t.Fatalf("expected empty pending list, got %+v", snap.Pending)
	}

	fetcher.release <- nil
	waitFor(t, func() bool {
		s := svc.Snapshot()
		return !s.Draining && s.Active == nil && len(s.Pending) == 0
	})
}

func TestEnqueue_RejectsInvalidURL(t *testing.T) {
	fetcher := newStubFetcher()
	svc := NewService(fetcher, &stubLibrary{size: 1}, testLogger(), 0)

	_, _, err := svc.Enqueue("not a url", "")
	var validation *fault.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if fetcher.callCount() != 0 {
		t.Fatalf("invalid url must not reach the fetcher")
	}
	if svc.Snapshot().Draining {
		t.Fatalf("rejected enqueue must not start the drain loop")
	}
}

func TestDrain_FailedJobDoesNotBlockNext(t *testing.T) {
	fetcher := newStubFetcher()
	svc := NewService(fetcher, &stubLibrary{size: 1}, testLogger(), 0)

	_, _, _ = svc.Enqueue("https://example.com/bad", "")
	idB, _, _ := svc.Enqueue("https://example.com/good", "")

	waitStarted(t, fetcher)
	fetcher.release <- &fault.ProcessError{Detail: "tool exploded"}

	if started := waitStarted(t, fetcher); started != idB {
		t.Fatalf("drain must continue to next job, got %s", started)
	}
	fetcher.release <- nil
	waitFor(t, func() bool { return !svc.Snapshot().Draining })
}

func TestCancel_PendingJobRemovedWithoutSideEffects(t *testing.T) {
	fetcher := newStubFetcher()
	svc := NewService(fetcher, &stubLibrary{size: 1}, testLogger(), 0)

	_, _, _ = svc.Enqueue("https://example.com/a", "")
	idB, _, _ := svc.Enqueue("https://example.com/b", "")
	waitStarted(t, fetcher)

	if !svc.Cancel(idB) {
		t.Fatalf("expected pending cancel to succeed")
	}
	if svc.Cancel("unknown") {
		t.Fatalf("unknown id must not cancel")
	}
	if pending := svc.Snapshot().Pending; len(pending) != 0 {
		t.Fatalf("expected empty pending list, got %+v", pending)
	}

	fetcher.release <- nil
	waitFor(t, func() bool { return !svc.Snapshot().Draining })

	if fetcher.callCount() != 1 {
		t.Fatalf("cancelled pending job must never spawn a download, saw %d calls", fetcher.callCount())
	}
}

func TestCancel_ActiveJobIsSoftCancelled(t *testing.T) {
	fetcher := newStubFetcher()
	svc := NewService(fetcher, &stubLibrary{size: 1}, testLogger(), 0)

	idA, _, _ := svc.Enqueue("https://example.com/a", "")
	waitStarted(t, fetcher)

	if !svc.Cancel(idA) {
		t.Fatalf("expected active cancel to remove the queue entry")
	}
	snap := svc.Snapshot()
	if snap.Active != nil || len(snap.Pending) != 0 {
		t.Fatalf("expected empty queue after soft cancel, got %+v", snap)
	}
	if !snap.Draining {
		t.Fatalf("the in-flight download keeps running after soft cancel")
	}

	// the subprocess run completes independently
	fetcher.release <- nil
	waitFor(t, func() bool { return !svc.Snapshot().Draining })
}

func TestSnapshot_IsIdempotent(t *testing.T) {
	fetcher := newStubFetcher()
	svc := NewService(fetcher, &stubLibrary{size: 1}, testLogger(), 0)

	_, _, _ = svc.Enqueue("https://example.com/a", "")
	_, _, _ = svc.Enqueue("https://example.com/b", "")
	waitStarted(t, fetcher)

	first := svc.Snapshot()
	second := svc.Snapshot()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("snapshots differ without mutation:\n%+v\n%+v", first, second)
	}

	fetcher.release <- nil
	waitStarted(t, fetcher)
	fetcher.release <- nil
	waitFor(t, func() bool { return !svc.Snapshot().Draining })
}

func TestDownloadNow_BlocksAndReturnsSize(t *testing.T) {
	fetcher := newStubFetcher()
	svc := NewService(fetcher, &stubLibrary{size: 2048}, testLogger(), 0)

	done := make(chan struct{})
	var filename string
	var size int64
	var err error
	go func() {
		filename, size, err = svc.DownloadNow(context.Background(), "https://example.com/one")
		close(done)
	}()

	id := waitStarted(t, fetcher)
	fetcher.release <- nil
	<-done

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if filename != "video_"+id+".mp4" || size != 2048 {
		t.Fatalf("unexpected result %s (%d bytes)", filename, size)
	}
}

func TestDownloadNow_RejectsInvalidURL(t *testing.T) {
	svc := NewService(newStubFetcher(), &stubLibrary{size: 1}, testLogger(), 0)

	_, _, err := svc.DownloadNow(context.Background(), "")
	var validation *fault.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
