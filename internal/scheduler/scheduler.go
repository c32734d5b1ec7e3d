package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"

	"github.com/Ravenshaw3/watch-media-server/internal/config"
	"github.com/Ravenshaw3/watch-media-server/internal/settings"
)

// EnqueueFunc asks for a scan on behalf of the named trigger.
type EnqueueFunc func(trigger string)

// Scheduler enqueues automatic scans on the configured interval. Settings are
// re-read on every check so toggling auto_scan or changing scan_interval
// takes effect without a restart.
type Scheduler struct {
	cfg          *config.Config
	settingsRepo *settings.Repository
	enqueue      EnqueueFunc
	cron         *cron.Cron
	lastScan     time.Time
}

func New(cfg *config.Config, settingsRepo *settings.Repository, enqueue EnqueueFunc) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		settingsRepo: settingsRepo,
		enqueue:      enqueue,
		cron:         cron.New(),
	}
}

// Start runs the check loop. The cron entry fires every minute; the check
// decides whether a scan is actually due.
func (s *Scheduler) Start() error {
	s.lastScan = time.Now()
	if _, err := s.cron.AddFunc("@every 1m", s.check); err != nil {
		return err
	}
	s.cron.Start()
	log.Println("Scheduler: auto-scan checker started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler: stopped")
}

func (s *Scheduler) check() {
	if !s.autoScanEnabled() {
		return
	}

	interval := s.scanInterval()
	if time.Since(s.lastScan) < interval {
		return
	}

	log.Printf("Scheduler: scan due (interval %s)", interval)
	s.lastScan = time.Now()
	s.enqueue("scheduler")
}

func (s *Scheduler) autoScanEnabled() bool {
	if v, err := s.settingsRepo.Get(settings.KeyAutoScan); err == nil && v != "" {
		return cast.ToBool(v)
	}
	return s.cfg.AutoScan
}

func (s *Scheduler) scanInterval() time.Duration {
	if v, err := s.settingsRepo.Get(settings.KeyScanInterval); err == nil && v != "" {
		if secs := cast.ToInt(v); secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return s.cfg.ScanInterval
}
