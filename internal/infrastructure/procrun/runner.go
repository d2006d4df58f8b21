// Package procrun runs external tools one process at a time and reports
// progress and destination filenames parsed from their line output.
package procrun

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"clipper/internal/domain/fault"
)

// stderrTailLines bounds the diagnostic text kept from a failing tool.
const stderrTailLines = 8

var progressPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// Spec describes one external process invocation.
type Spec struct {
	Command string
	Args    []string
	Dir     string

	// OnProgress fires for every line carrying a percentage. The latest
	// match always wins; tools like yt-dlp report separate video and audio
	// phases, so the value is not monotonic and is passed through as-is.
	OnProgress func(percent float64)

	// OnFilename fires when a line names a written destination or a merge
	// target, letting the caller learn the output file without parsing
	// exit data.
	OnFilename func(path string)
}

// Run starts the process, drains both output streams line by line, and
// maps the exit status onto the fault taxonomy: a spawn failure yields a
// ProcessError without an exit code, a nonzero exit yields one carrying
// the code and the trailing stderr text. No retries happen here.
func Run(ctx context.Context, spec Spec) error {
	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &fault.ProcessError{Detail: err.Error()}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &fault.ProcessError{Detail: err.Error()}
	}

	if err := cmd.Start(); err != nil {
		return &fault.ProcessError{Detail: err.Error()}
	}

	var tail tailBuffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stdout, spec, nil)
	}()
	go func() {
		defer wg.Done()
		scanLines(stderr, spec, &tail)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			return &fault.ProcessError{ExitCode: &code, Detail: tail.String()}
		}
		return &fault.ProcessError{Detail: err.Error()}
	}
	return nil
}

func scanLines(r io.Reader, spec Spec, tail *tailBuffer) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if tail != nil {
			tail.Add(line)
		}
		if spec.OnProgress != nil {
			if percent, ok := ParseProgress(line); ok {
				spec.OnProgress(percent)
			}
		}
		if spec.OnFilename != nil {
			if path, ok := ParseFilename(line); ok {
				spec.OnFilename(path)
			}
		}
	}
}

// ParseProgress extracts the last percentage found on a line.
func ParseProgress(line string) (float64, bool) {
	matches := progressPattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return 0, false
	}
	value, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ParseFilename extracts a destination path from the completion markers
// yt-dlp prints when it writes a file or merges two streams.
func ParseFilename(line string) (string, bool) {
	if idx := strings.Index(line, "Destination: "); idx >= 0 {
		path := strings.TrimSpace(line[idx+len("Destination: "):])
		if path != "" {
			return path, true
		}
		return "", false
	}
	if idx := strings.Index(line, "Merging formats into "); idx >= 0 {
		path := strings.TrimSpace(line[idx+len("Merging formats into "):])
		path = strings.Trim(path, `"`)
		if path != "" {
			return path, true
		}
	}
	return "", false
}

type tailBuffer struct {
	mu    sync.Mutex
	lines []string
}

func (t *tailBuffer) Add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > stderrTailLines {
		t.lines = t.lines[len(t.lines)-stderrTailLines:]
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
