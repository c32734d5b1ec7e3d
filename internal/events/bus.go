package events

import (
	"log"
	"sync"
	"time"
)

// Event names published by the scan pipeline.
const (
	ScanStart     = "scan:start"
	ScanCounting  = "scan:counting"
	ScanProgress  = "scan:progress"
	ScanComplete  = "scan:complete"
	ScanCancelled = "scan:cancelled"
	ScanFailed    = "scan:failed"
)

// Event is one notification delivered to subscribers.
type Event struct {
	Type string      `json:"event"`
	Data interface{} `json:"data"`
}

// IsTerminal reports whether the event ends a scan job.
func (e Event) IsTerminal() bool {
	switch e.Type {
	case ScanComplete, ScanCancelled, ScanFailed:
		return true
	}
	return false
}

const (
	subscriberBuffer = 64
	terminalRetries  = 3
	terminalBackoff  = 25 * time.Millisecond
)

// Bus fans events out to subscribers without ever blocking the publisher.
// Intermediate events are dropped when a subscriber's buffer is full;
// terminal events get a bounded number of retries because clients rely on
// them to refresh their view.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber channel. The caller must drain it and
// call Unsubscribe when done.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish delivers an event to all subscribers, best-effort. A slow or absent
// subscriber loses the event rather than backing up the scan pipeline.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// PublishTerminal delivers a terminal scan event, retrying each full
// subscriber a bounded number of times before giving up.
func (b *Bus) PublishTerminal(evt Event) {
	b.mu.RLock()
	subs := make([]chan Event, 0, len(b.subs))
	for ch := range b.subs {
		subs = append(subs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range subs {
		delivered := false
		for attempt := 0; attempt <= terminalRetries; attempt++ {
			select {
			case ch <- evt:
				delivered = true
			default:
				time.Sleep(terminalBackoff)
			}
			if delivered {
				break
			}
		}
		if !delivered {
			log.Printf("Events: dropped terminal event %s for slow subscriber", evt.Type)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
