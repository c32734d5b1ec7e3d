package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/Ravenshaw3/watch-media-server/internal/scanner"
)

type ScanHandler struct {
	orch *scanner.Orchestrator
}

func NewScanHandler(orch *scanner.Orchestrator) *ScanHandler {
	return &ScanHandler{orch: orch}
}

// ProcessTask hands the scan to the orchestrator. The orchestrator enforces
// single-flight itself, so a rejected request is not a task failure; retrying
// would just be rejected again.
func (h *ScanHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ScanPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	log.Printf("Job: scan requested (trigger=%s)", p.Trigger)
	if result := h.orch.RequestScan(); result == scanner.RequestAlreadyRunning {
		log.Printf("Job: scan already running, dropping %s trigger", p.Trigger)
	}
	return nil
}
