package download

import "time"

// Status describes the lifecycle stage of an acquisition job.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusComplete    Status = "complete"
	StatusFailed      Status = "failed"
)

// Job is one queued request to retrieve a remote media URL.
type Job struct {
	ID             string    `json:"id"`
	SourceURL      string    `json:"url"`
	Title          string    `json:"title"`
	Status         Status    `json:"status"`
	Progress       float64   `json:"progress"`
	ResultFilename string    `json:"resultFilename,omitempty"`
	LastError      string    `json:"lastError,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Snapshot is the read-only queue view handed to polling clients.
// Active is the head of the queue while it is downloading, nil otherwise.
type Snapshot struct {
	Active   *Job  `json:"activeJob"`
	Pending  []Job `json:"pendingJobs"`
	Draining bool  `json:"isDraining"`
}
