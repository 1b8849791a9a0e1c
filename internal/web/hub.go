package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxViewerRead  = 512
	clientQueueLen = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// viewer is one connected websocket client.
type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans scan events out to connected viewers.
//
// Each viewer has a small send queue; a viewer that falls behind is
// disconnected rather than slowing down scans.
type Hub struct {
	viewers    map[*viewer]bool
	broadcast  chan []byte
	register   chan *viewer
	unregister chan *viewer
	done       chan struct{}
	mu         sync.RWMutex
	log        logrus.FieldLogger
}

// NewHub creates a hub. Call Run to start it.
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		viewers:    make(map[*viewer]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *viewer),
		unregister: make(chan *viewer),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run processes registrations and broadcasts until ctx is done, then
// disconnects every viewer. Run must be called only once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for v := range h.viewers {
				delete(h.viewers, v)
				close(v.send)
			}
			h.mu.Unlock()
			return

		case v := <-h.register:
			h.mu.Lock()
			h.viewers[v] = true
			n := len(h.viewers)
			h.mu.Unlock()
			h.log.WithField("viewers", n).Info("Viewer connected")

		case v := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.viewers[v]; ok {
				delete(h.viewers, v)
				close(v.send)
			}
			n := len(h.viewers)
			h.mu.Unlock()
			h.log.WithField("viewers", n).Info("Viewer disconnected")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for v := range h.viewers {
				select {
				case v.send <- msg:
				default:
					h.log.Warn("Dropping slow viewer")
					delete(h.viewers, v)
					close(v.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues msg for every viewer. It never blocks; when the queue is
// full the message is dropped.
func (h *Hub) Broadcast(msg []byte) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		h.log.Warn("Broadcast queue full, dropping scan event")
		return false
	}
}

// ViewerCount returns the number of connected viewers.
func (h *Hub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// ServeWS upgrades the request and streams events to the viewer until it
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, clientQueueLen)}
	select {
	case h.register <- v:
	case <-r.Context().Done():
		conn.Close()
		return
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(v)
	h.readPump(v)
}

// readPump discards viewer messages and detects disconnects.
func (h *Hub) readPump(v *viewer) {
	defer func() {
		select {
		case h.unregister <- v:
		case <-h.done:
		}
	}()

	v.conn.SetReadLimit(maxViewerRead)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		v.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(v *viewer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.WithError(err).Debug("Error sending message")
				return
			}
		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
