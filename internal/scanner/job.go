package scanner

import "time"

// Status is the scan-job state machine position.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusCounting  Status = "counting"
	StatusScanning  Status = "scanning"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// ScanError records one non-fatal per-file failure. The scan continues past
// these; they are reported in the final summary.
type ScanError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Job is the state of one scan run. It lives only for the duration of the
// run (plus a terminal summary) and is mutated only by the orchestrator's
// scanning goroutine; everyone else sees value copies.
type Job struct {
	Status         Status      `json:"status"`
	TotalFiles     int         `json:"total_files"`
	ProcessedFiles int         `json:"processed_files"`
	FilesAdded     int         `json:"files_added"`
	FilesUpdated   int         `json:"files_updated"`
	FilesRemoved   int         `json:"files_removed"`
	FilesSkipped   int         `json:"files_skipped"`
	CurrentPath    string      `json:"current_path,omitempty"`
	StartedAt      time.Time   `json:"started_at"`
	EndedAt        *time.Time  `json:"ended_at,omitempty"`
	Errors         []ScanError `json:"errors,omitempty"`
}

// snapshot returns a value copy safe to hand to handlers and events.
func (j *Job) snapshot() Job {
	copied := *j
	if len(j.Errors) > 0 {
		copied.Errors = append([]ScanError(nil), j.Errors...)
	}
	return copied
}

// RequestResult is the synchronous answer to a scan request.
type RequestResult string

const (
	RequestStarted        RequestResult = "started"
	RequestAlreadyRunning RequestResult = "already_running"
)
