// Package ytdlp shells out to yt-dlp to retrieve remote media into the
// storage directory.
package ytdlp

import (
	"context"
	"os"
	"path/filepath"

	"clipper/internal/domain/fault"
	"clipper/internal/infrastructure/procrun"
)

// Store is the slice of the filesystem adapter the client needs to derive
// output names and resolve results.
type Store interface {
	SourceTemplate(jobID string) string
	SourcePattern(jobID string) string
}

// Client runs the retrieval tool for one URL at a time.
type Client struct {
	Bin   string
	store Store
}

// NewClient creates a yt-dlp adapter using the given executable path.
func NewClient(bin string, store Store) *Client {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Client{Bin: bin, store: store}
}

// Fetch downloads url into the storage directory under the job's source
// name, selecting best available video+audio merged into a single mp4.
// Progress lines from the tool are forwarded as-is; the returned filename
// is the file actually written.
func (c *Client) Fetch(ctx context.Context, jobID, url string, onProgress func(float64)) (string, error) {
	var reported string
	err := procrun.Run(ctx, procrun.Spec{
		Command:    c.Bin,
		Args:       fetchArgs(url, c.store.SourceTemplate(jobID)),
		OnProgress: onProgress,
		OnFilename: func(path string) {
			reported = filepath.Base(path)
		},
	})
	if err != nil {
		return "", err
	}
	return c.resolveResult(jobID, reported)
}

// resolveResult prefers the tool's own completion marker but falls back to
// globbing for the job's output, since a single-format download never
// prints a merge line.
func (c *Client) resolveResult(jobID, reported string) (string, error) {
	matches, err := filepath.Glob(c.store.SourcePattern(jobID))
	if err == nil {
		for _, match := range matches {
			if filepath.Base(match) == reported {
				return reported, nil
			}
		}
		// yt-dlp reports intermediate fragment names too; the glob match
		// is the merged container.
		for _, match := range matches {
			if info, statErr := os.Stat(match); statErr == nil && !info.IsDir() {
				return filepath.Base(match), nil
			}
		}
	}
	return "", &fault.FilesystemError{Msg: "download finished but no output file for job " + jobID}
}

func fetchArgs(url, outputTemplate string) []string {
	return []string{
		"--no-playlist",
		"--newline",
		"-f", "bestvideo+bestaudio/best",
		"--merge-output-format", "mp4",
		"-o", outputTemplate,
		url,
	}
}
