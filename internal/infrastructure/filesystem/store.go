package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"clipper/internal/domain/fault"
)

const (
	sourcePrefix = "video_"
	audioPrefix  = "audio_"
	clipPrefix   = "clip_"
	lockFileName = ".clipper.lock"
)

var containerExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".mov":  true,
}

// File is a stored media file entry returned to listing clients.
type File struct {
	Name string
	Size int64
}

// Store manages the storage directory holding retrieved sources and clip
// outputs. All state is filesystem-only; names follow the
// video_<jobId>.<ext> / clip_<timestamp>.<ext> convention.
type Store struct {
	Dir string
}

// NewStore creates a filesystem adapter rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// EnsureDir creates the storage root.
func (s *Store) EnsureDir() error {
	return os.MkdirAll(s.Dir, 0o755)
}

// LockPath returns the path of the single-instance lock file.
func (s *Store) LockPath() string {
	return filepath.Join(s.Dir, lockFileName)
}

// List returns stored media files with sizes, newest name first.
func (s *Store) List() ([]File, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, &fault.FilesystemError{Msg: "reading storage directory", Err: err}
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !containerExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, File{Name: entry.Name(), Size: info.Size()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	return files, nil
}

// LatestSource returns the most recently downloaded source file. Names embed
// a creation timestamp, so the lexicographically greatest video_* name is the
// newest; prior clip outputs are never candidates.
func (s *Store) LatestSource() (string, error) {
	files, err := s.List()
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if strings.HasPrefix(f.Name, sourcePrefix) {
			return f.Name, nil
		}
	}
	return "", fault.NotFound("no source video in storage directory")
}

// CompanionAudio returns the separate audio file downloaded alongside a
// source, if one exists. video_<id>.<ext> pairs with audio_<id>.<ext>.
func (s *Store) CompanionAudio(sourceName string) (string, bool) {
	if !strings.HasPrefix(sourceName, sourcePrefix) {
		return "", false
	}
	stem := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	id := strings.TrimPrefix(stem, sourcePrefix)

	matches, err := filepath.Glob(filepath.Join(s.Dir, audioPrefix+id+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return filepath.Base(matches[0]), true
}

// NewClipName derives a deterministic clip filename from a request timestamp.
func (s *Store) NewClipName(at time.Time) string {
	return fmt.Sprintf("%s%d.mp4", clipPrefix, at.UnixMilli())
}

// SourcePattern returns the glob matching every container a job may have
// produced, used to resolve the result file after a download finishes.
func (s *Store) SourcePattern(jobID string) string {
	return filepath.Join(s.Dir, sourcePrefix+jobID+".*")
}

// SourceTemplate returns the output template handed to the retrieval tool.
func (s *Store) SourceTemplate(jobID string) string {
	return filepath.Join(s.Dir, sourcePrefix+jobID+".%(ext)s")
}

// Resolve validates a client-supplied filename and returns its absolute
// path, rejecting anything that escapes the storage directory.
func (s *Store) Resolve(name string) (string, error) {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" || cleaned != filepath.Base(cleaned) || strings.HasPrefix(cleaned, ".") {
		return "", fault.Validation("invalid file name %q", name)
	}
	full := filepath.Join(s.Dir, cleaned)
	if !isWithinDir(s.Dir, full) {
		return "", fault.Validation("invalid file name %q", name)
	}
	return full, nil
}

// Path returns the absolute path of a stored file without validation.
// Use Resolve for client-supplied names.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Size stats a stored file and returns its byte size.
func (s *Store) Size(name string) (int64, error) {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fault.NotFound("file %s not found", name)
		}
		return 0, &fault.FilesystemError{Msg: "stat " + name, Err: err}
	}
	return info.Size(), nil
}

// Delete removes a stored file by its client-supplied name.
func (s *Store) Delete(name string) error {
	full, err := s.Resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return fault.NotFound("file %s not found", name)
		}
		return &fault.FilesystemError{Msg: "deleting " + name, Err: err}
	}
	return nil
}

func isWithinDir(basePath, targetPath string) bool {
	baseAbs, err := filepath.Abs(basePath)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false
	}
	sep := string(os.PathSeparator)
	return rel != ".." && !strings.HasPrefix(rel, ".."+sep)
}
