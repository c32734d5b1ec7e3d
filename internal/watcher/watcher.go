package watcher

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EnqueueFunc asks for a scan on behalf of the named trigger.
type EnqueueFunc func(trigger string)

// debounceWindow batches event bursts (a copy in progress fires many writes)
// into one scan request.
const debounceWindow = 2 * time.Second

// Watcher monitors the library root for filesystem changes and requests a
// scan when media files appear or disappear. It never touches the catalog
// itself; the scan pipeline is the only writer.
type Watcher struct {
	root    string
	exts    map[string]bool
	enqueue EnqueueFunc
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	watched  map[string]bool
	debounce *time.Timer
	stop     chan struct{}
}

// New creates a watcher over root. formats is the extension allow-list
// without leading dots, matching the scanner's.
func New(root string, formats []string, enqueue EnqueueFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	exts := make(map[string]bool, len(formats))
	for _, f := range formats {
		exts["."+strings.ToLower(strings.TrimPrefix(f, "."))] = true
	}
	return &Watcher{
		root:    root,
		exts:    exts,
		enqueue: enqueue,
		watcher: fw,
		watched: make(map[string]bool),
		stop:    make(chan struct{}),
	}, nil
}

// Start begins watching the library tree and processing events.
func (w *Watcher) Start() {
	go w.eventLoop()

	w.mu.Lock()
	if err := w.addRecursive(w.root); err != nil {
		log.Printf("Watcher: error watching %s: %v", w.root, err)
	}
	count := len(w.watched)
	w.mu.Unlock()

	log.Printf("Watcher: watching %d directories under %s", count, w.root)
}

func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
}

// addRecursive registers root and every subdirectory. Caller holds w.mu.
func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible dirs
		}
		if !info.IsDir() {
			return nil
		}
		if base := filepath.Base(path); strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return nil
		}
		w.watched[path] = true
		return nil
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher: error: %v", err)
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") ||
		strings.HasSuffix(base, ".part") {
		return
	}

	isCreate := event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
	isRemove := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	if !isCreate && !isRemove {
		return
	}

	// New directories join the watch set; their contents arrive as
	// further events.
	if isCreate {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.mu.Lock()
			if err := w.watcher.Add(event.Name); err == nil {
				w.watched[event.Name] = true
			}
			w.mu.Unlock()
			w.requestScan()
			return
		}
	}

	if !w.exts[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	w.requestScan()
}

// requestScan resets the debounce timer; the scan fires once the burst of
// events settles.
func (w *Watcher) requestScan() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(debounceWindow, func() {
		log.Println("Watcher: library changed, requesting scan")
		w.enqueue("watcher")
	})
}
