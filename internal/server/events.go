package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowsketch/pkg/controller"
)

// clientBuffer is how many events a slow client may fall behind before
// events are dropped for it.
const clientBuffer = 16

// message is one server-sent event.
type message struct {
	event string
	data  []byte
}

// hub fans controller events out to connected event streams.
// It is a controller.Observer; OnChange never blocks.
type hub struct {
	mu      sync.Mutex
	clients map[chan message]struct{}
	closed  bool
	logger  *log.Logger
}

func newHub(logger *log.Logger) *hub {
	return &hub{clients: make(map[chan message]struct{}), logger: logger}
}

// OnChange broadcasts e to every client.
func (h *hub) OnChange(e controller.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("encode event", "err", err)
		return
	}
	h.broadcast(message{event: string(e.Kind), data: data})
}

func (h *hub) broadcast(m message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- m:
		default:
			h.logger.Warn("event stream client lagging, dropping event", "event", m.event)
		}
	}
}

// subscribe registers a client. ok is false once the hub is closed.
func (h *hub) subscribe() (ch chan message, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	ch = make(chan message, clientBuffer)
	h.clients[ch] = struct{}{}
	return ch, true
}

func (h *hub) unsubscribe(ch chan message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// handleEvents streams controller events. The first event is the full
// current state.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, ok := s.hub.subscribe()
	if !ok {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.hub.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial, err := json.Marshal(s.ctrl.State())
	if err != nil {
		s.logger.Error("encode state", "err", err)
		return
	}
	if err := writeEvent(w, message{event: "state", data: initial}); err != nil {
		s.logWriteError(r, err)
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, m); err != nil {
				s.logWriteError(r, err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, m message) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", m.event, m.data)
	return err
}
