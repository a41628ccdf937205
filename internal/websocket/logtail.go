// Package websocket streams activity log entries to admin clients as they
// are appended, so the admin panel can tail the log without polling.
package websocket

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"relaychat-backend/internal/logbuf"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type LogStreamer struct {
	logs *logbuf.Buffer

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewLogStreamer(logs *logbuf.Buffer) *LogStreamer {
	return &LogStreamer{
		logs:  logs,
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Handle upgrades the connection and forwards every new log entry as a
// JSON message. Auth and the admin gate run in the router before this.
func (s *LogStreamer) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	ch := s.logs.Subscribe()

	// Reader goroutine: its only job is to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.logs.Unsubscribe(ch)
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case entry, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		}
	}
}

// ActiveConnections reports how many admin tails are attached.
func (s *LogStreamer) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
