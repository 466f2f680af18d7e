package api

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	sendBuffer  = 4
	maxStreamed = 8 // concurrent stream subscribers
)

// hub fans published snapshots out to websocket subscribers. A subscriber
// whose buffer is full is dropped rather than allowed to stall Publish.
type hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func newHub() *hub {
	return &hub{subs: make(map[*subscriber]struct{})}
}

// add registers conn and starts its writer. It returns nil when the hub is
// full.
func (h *hub) add(conn *websocket.Conn) *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.subs) >= maxStreamed {
		return nil
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.subs[sub] = struct{}{}
	go sub.writeLoop(h)
	return sub
}

func (h *hub) remove(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()
	if ok {
		sub.close()
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *hub) broadcast(data []byte) {
	h.mu.Lock()
	var slow []*subscriber
	for sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range slow {
		slog.Warn("dropping slow stream subscriber", "remote", sub.conn.RemoteAddr().String())
		h.remove(sub)
	}
}

func (s *subscriber) writeLoop(h *hub) {
	for data := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(s)
			s.conn.Close()
			return
		}
	}
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	s.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
	s.conn.Close()
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// sendTo queues data for one subscriber if it is still registered.
func (h *hub) sendTo(sub *subscriber, data []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return false
	}
	select {
	case sub.send <- data:
		return true
	default:
		return false
	}
}

// closeAll drops every subscriber.
func (h *hub) closeAll() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()
	for _, sub := range subs {
		h.remove(sub)
	}
}
