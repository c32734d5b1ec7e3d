package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"nhooyr.io/websocket"

	"github.com/Ravenshaw3/watch-media-server/internal/events"
)

// ──────────────────── WebSocket Hub ────────────────────

// WSHub fans scan events out to connected WebSocket clients. Sends never
// block; a client whose buffer is full misses intermediate progress frames
// and catches up on the next one.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]bool

	scanMu   sync.RWMutex
	lastScan json.RawMessage // last non-terminal scan event, replayed to new clients
}

type WSClient struct {
	conn *websocket.Conn
	send chan []byte
}

type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[*WSClient]bool),
	}
}

// Run pumps events from the bus to the clients until ctx is done. Intended
// to run as a goroutine for the life of the process.
func (h *WSHub) Run(ctx context.Context, bus *events.Bus) {
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			h.Broadcast(evt.Type, evt.Data)
		}
	}
}

func (h *WSHub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		return
	}

	h.trackScan(event, msg)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
		}
	}
}

// trackScan keeps the latest in-flight scan frame so clients that connect
// mid-scan see current progress immediately.
func (h *WSHub) trackScan(event string, raw []byte) {
	if !strings.HasPrefix(event, "scan:") {
		return
	}

	h.scanMu.Lock()
	defer h.scanMu.Unlock()
	if (events.Event{Type: event}).IsTerminal() {
		h.lastScan = nil
	} else {
		h.lastScan = json.RawMessage(raw)
	}
}

// sendScanState replays the in-flight scan frame to a new client, if any.
func (h *WSHub) sendScanState(client *WSClient) {
	h.scanMu.RLock()
	defer h.scanMu.RUnlock()
	if h.lastScan == nil {
		return
	}
	select {
	case client.send <- h.lastScan:
	default:
	}
}

func (h *WSHub) addClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *WSHub) removeClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ──────────────────── WebSocket Handler ────────────────────

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("WebSocket accept error: %v", err)
		return
	}

	client := &WSClient{
		conn: conn,
		send: make(chan []byte, 64),
	}

	s.wsHub.addClient(client)
	s.wsHub.sendScanState(client)
	log.Printf("WebSocket client connected (%d total)", s.wsHub.ClientCount())

	ctx := r.Context()

	// Writer goroutine
	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for msg := range client.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop keeps the connection alive and handles pings.
	for {
		_, _, err := conn.Read(ctx)
		if err != nil {
			break
		}
	}

	s.wsHub.removeClient(client)
	log.Printf("WebSocket client disconnected (%d total)", s.wsHub.ClientCount())
}
