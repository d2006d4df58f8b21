package downloadqueue

import "context"

// Fetcher is the application port for the external retrieval tool.
type Fetcher interface {
	Fetch(ctx context.Context, jobID, url string, onProgress func(float64)) (string, error)
}

// Library resolves sizes of stored files for the synchronous download path.
type Library interface {
	Size(name string) (int64, error)
}
