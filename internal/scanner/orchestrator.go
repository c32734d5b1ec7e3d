package scanner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/Ravenshaw3/watch-media-server/internal/catalog"
	"github.com/Ravenshaw3/watch-media-server/internal/events"
)

// EventPublisher receives scan lifecycle events. Publish must never block;
// PublishTerminal may retry briefly because clients rely on terminal events.
type EventPublisher interface {
	Publish(events.Event)
	PublishTerminal(events.Event)
}

// progressInterval throttles scan:progress events; the final per-file event
// is always published so the UI lands on the true count.
const progressInterval = 500 * time.Millisecond

// Orchestrator owns the single active scan job and drives the
// walk → classify → probe → reconcile pipeline. At most one job exists at a
// time; requests made while one is running are rejected.
type Orchestrator struct {
	walker     *Walker
	classifier *Classifier
	prober     Prober
	store      CatalogStore
	reconciler *Reconciler
	publisher  EventPublisher
	workers    int

	mu          sync.Mutex
	job         *Job
	lastSummary *Job
	cancelFlag  atomic.Bool
}

func NewOrchestrator(walker *Walker, classifier *Classifier, prober Prober,
	store CatalogStore, publisher EventPublisher, workers int,
) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		walker:     walker,
		classifier: classifier,
		prober:     prober,
		store:      store,
		reconciler: NewReconciler(store),
		publisher:  publisher,
		workers:    workers,
	}
}

// RequestScan starts a scan if none is running. The already-running answer is
// synchronous and leaves the active job untouched.
func (o *Orchestrator) RequestScan() RequestResult {
	o.mu.Lock()
	if o.job != nil {
		o.mu.Unlock()
		return RequestAlreadyRunning
	}
	job := &Job{Status: StatusCounting, StartedAt: time.Now()}
	o.job = job
	o.cancelFlag.Store(false)
	o.mu.Unlock()

	log.Println("Scan: starting library scan")
	go o.run(job)
	return RequestStarted
}

// Cancel requests cooperative cancellation of the active scan. The pipeline
// stops dispatching new probe work, drains in-flight probes, and transitions
// to cancelled. Returns false when no scan is running.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.job == nil {
		return false
	}
	o.cancelFlag.Store(true)
	log.Println("Scan: cancellation requested")
	return true
}

// Status returns a snapshot of the active job, or an idle placeholder.
func (o *Orchestrator) Status() Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.job == nil {
		return Job{Status: StatusIdle}
	}
	return o.job.snapshot()
}

// LastSummary returns the terminal summary of the most recent scan, or nil
// if none has finished since startup.
func (o *Orchestrator) LastSummary() *Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastSummary == nil {
		return nil
	}
	copied := o.lastSummary.snapshot()
	return &copied
}

func (o *Orchestrator) cancelled() bool {
	return o.cancelFlag.Load()
}

type workUnit struct {
	file     WalkedFile
	existing *catalog.MediaItem
}

type fileOutcome struct {
	path    string
	added   bool
	updated bool
	errs    []ScanError
}

func (o *Orchestrator) run(job *Job) {
	o.publisher.Publish(events.Event{Type: events.ScanStart, Data: job.snapshot()})

	// Counting phase: one walk produces both the total and the snapshot the
	// whole scan reconciles against.
	walked, walkErrs := o.walker.Walk()

	existing, err := o.store.List()
	if err != nil {
		o.finish(job, StatusFailed, fmt.Sprintf("catalog unavailable: %v", err))
		return
	}

	delta := o.reconciler.Diff(walked, existing)

	o.mu.Lock()
	job.Errors = append(job.Errors, walkErrs...)
	job.TotalFiles = len(walked)
	job.FilesSkipped = delta.Unchanged
	job.ProcessedFiles = delta.Unchanged
	job.Status = StatusScanning
	counting := job.snapshot()
	o.mu.Unlock()

	log.Printf("Scan: %d files walked (%d new, %d changed, %d removed, %d unchanged)",
		len(walked), len(delta.New), len(delta.Changed), len(delta.Removed), delta.Unchanged)
	o.publisher.Publish(events.Event{Type: events.ScanCounting, Data: counting})

	if o.cancelled() {
		o.finish(job, StatusCancelled, "")
		return
	}

	work := make([]workUnit, 0, delta.Pending())
	for _, f := range delta.New {
		work = append(work, workUnit{file: f})
	}
	for _, c := range delta.Changed {
		work = append(work, workUnit{file: c.File, existing: c.Existing})
	}

	o.processFiles(job, work)

	if o.cancelled() {
		o.finish(job, StatusCancelled, "")
		return
	}

	o.applyRemovals(job, delta.Removed)

	// applyRemovals stops early on cancellation; the status must say so.
	if o.cancelled() {
		o.finish(job, StatusCancelled, "")
		return
	}
	o.finish(job, StatusCompleted, "")
}

// processFiles runs the probe worker pool over new and changed files and
// folds outcomes back into the job from this single goroutine.
func (o *Orchestrator) processFiles(job *Job, work []workUnit) {
	if len(work) == 0 {
		return
	}

	workCh := make(chan workUnit)
	resCh := make(chan fileOutcome)

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range workCh {
				resCh <- o.processOne(unit)
			}
		}()
	}

	// Dispatcher checks the cancel flag between files: cancellation stops
	// new probe work but lets in-flight probes drain.
	go func() {
		for _, unit := range work {
			if o.cancelled() {
				break
			}
			workCh <- unit
		}
		close(workCh)
	}()

	go func() {
		wg.Wait()
		close(resCh)
	}()

	limiter := rate.NewLimiter(rate.Every(progressInterval), 1)
	for out := range resCh {
		o.mu.Lock()
		job.ProcessedFiles++
		job.CurrentPath = out.path
		job.Errors = append(job.Errors, out.errs...)
		if out.added {
			job.FilesAdded++
		}
		if out.updated {
			job.FilesUpdated++
		}
		final := job.ProcessedFiles >= job.TotalFiles
		snap := job.snapshot()
		o.mu.Unlock()

		if final || limiter.Allow() {
			o.publisher.Publish(events.Event{Type: events.ScanProgress, Data: snap})
		}
	}
}

// processOne classifies, probes, and applies a single file. Classification
// never fails; a probe failure is recorded but the file is still cataloged
// with whatever metadata is available, per-row atomically.
func (o *Orchestrator) processOne(unit workUnit) fileOutcome {
	out := fileOutcome{path: unit.file.Path}

	desc := o.classifier.Classify(unit.file.Path)

	probe, err := o.prober.Probe(context.Background(), unit.file.Path)
	if err != nil {
		log.Printf("Scan: probe failed for %s: %v", unit.file.Path, err)
		out.errs = append(out.errs, ScanError{Path: unit.file.Path, Reason: fmt.Sprintf("probe failed: %v", err)})
		probe = nil
	}

	item := BuildItem(unit.file, desc, probe, unit.existing)
	if err := o.reconciler.ApplyUpsert(item); err != nil {
		log.Printf("Scan: %v", err)
		out.errs = append(out.errs, ScanError{Path: unit.file.Path, Reason: err.Error()})
		return out
	}

	if unit.existing == nil {
		out.added = true
	} else {
		out.updated = true
	}
	return out
}

func (o *Orchestrator) applyRemovals(job *Job, removed []*catalog.MediaItem) {
	for _, item := range removed {
		if o.cancelled() {
			return
		}
		err := o.reconciler.ApplyRemoval(item.FilePath)

		o.mu.Lock()
		if err != nil {
			log.Printf("Scan: %v", err)
			job.Errors = append(job.Errors, ScanError{Path: item.FilePath, Reason: err.Error()})
		} else {
			job.FilesRemoved++
		}
		o.mu.Unlock()
	}
}

// finish publishes the terminal summary and only then returns the
// orchestrator to idle, so no progress events follow the terminal one.
func (o *Orchestrator) finish(job *Job, status Status, reason string) {
	now := time.Now()

	o.mu.Lock()
	job.Status = status
	job.EndedAt = &now
	job.CurrentPath = ""
	if reason != "" {
		job.Errors = append(job.Errors, ScanError{Reason: reason})
	}
	summary := job.snapshot()
	o.lastSummary = &summary
	o.mu.Unlock()

	log.Printf("Scan: %s — %d/%d processed, %d added, %d updated, %d removed, %d skipped, %d errors",
		status, summary.ProcessedFiles, summary.TotalFiles, summary.FilesAdded,
		summary.FilesUpdated, summary.FilesRemoved, summary.FilesSkipped, len(summary.Errors))

	var evtType string
	switch status {
	case StatusCancelled:
		evtType = events.ScanCancelled
	case StatusFailed:
		evtType = events.ScanFailed
	default:
		evtType = events.ScanComplete
	}
	o.publisher.PublishTerminal(events.Event{Type: evtType, Data: summary})

	o.mu.Lock()
	o.job = nil
	o.mu.Unlock()
}
