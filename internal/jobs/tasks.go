package jobs

import (
	"github.com/Ravenshaw3/watch-media-server/internal/scanner"
)

// ScanPayload records what asked for the scan (scheduler, watcher, api).
type ScanPayload struct {
	Trigger string `json:"trigger"`
}

// ScanTaskID is the deterministic task ID for the library scan; all enqueue
// paths share it so only one scan task can be pending at a time.
const ScanTaskID = "scan:library:default"

func RegisterHandlers(q *Queue, orch *scanner.Orchestrator) {
	q.RegisterHandler(TaskScanLibrary, NewScanHandler(orch))
}
