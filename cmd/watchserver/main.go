package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ravenshaw3/watch-media-server/internal/api"
	"github.com/Ravenshaw3/watch-media-server/internal/catalog"
	"github.com/Ravenshaw3/watch-media-server/internal/config"
	"github.com/Ravenshaw3/watch-media-server/internal/db"
	"github.com/Ravenshaw3/watch-media-server/internal/events"
	"github.com/Ravenshaw3/watch-media-server/internal/jobs"
	"github.com/Ravenshaw3/watch-media-server/internal/scanner"
	"github.com/Ravenshaw3/watch-media-server/internal/scheduler"
	"github.com/Ravenshaw3/watch-media-server/internal/settings"
	"github.com/Ravenshaw3/watch-media-server/internal/version"
	"github.com/Ravenshaw3/watch-media-server/internal/watcher"
)

func main() {
	log.Printf("watch-media-server %s starting...", version.Version)

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		log.Fatalf("schema init failed: %v", err)
	}

	cfg.MergeFromDB(database.DB)
	log.Printf("library path: %s (workers=%d, auto_scan=%v)", cfg.LibraryPath, cfg.ScanWorkers, cfg.AutoScan)

	mediaRepo := catalog.NewRepository(database.DB)
	settingsRepo := settings.NewRepository(database.DB)

	bus := events.NewBus()

	walker := scanner.NewWalker([]string{cfg.LibraryPath}, cfg.Formats())
	classifier := scanner.NewClassifier(scanner.DefaultReleaseTags)
	prober := &scanner.FFprobe{Path: cfg.FFprobePath, Timeout: cfg.ProbeTimeout}
	orch := scanner.NewOrchestrator(walker, classifier, prober, mediaRepo, bus, cfg.ScanWorkers)

	queue := jobs.NewQueue(cfg.RedisAddr)
	jobs.RegisterHandlers(queue, orch)

	enqueueScan := func(trigger string) {
		if _, err := queue.EnqueueUnique(jobs.TaskScanLibrary, jobs.ScanPayload{Trigger: trigger}, jobs.ScanTaskID); err != nil {
			log.Printf("enqueue scan (%s): %v", trigger, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := queue.Start(ctx); err != nil {
		log.Fatalf("job queue failed: %v", err)
	}
	defer queue.Stop()

	sched := scheduler.New(cfg, settingsRepo, enqueueScan)
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler failed: %v", err)
	}
	defer sched.Stop()

	fw, err := watcher.New(cfg.LibraryPath, cfg.Formats(), enqueueScan)
	if err != nil {
		log.Printf("filesystem watcher unavailable: %v", err)
	} else {
		fw.Start()
		defer fw.Stop()
	}

	srv := api.NewServer(cfg, database, orch, mediaRepo, settingsRepo)

	go func() {
		if err := srv.Start(ctx, bus); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}
