package web

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/once-timer/internal/status"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

var upgrader = websocket.Upgrader{
	// The page may be opened through a proxy or by IP; the feed is read-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleFeed streams the compact status JSON to a WebSocket client: once on
// connect and again whenever the timer state changes.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	s.feeds.Add(1)
	defer s.feeds.Done()
	defer conn.Close()

	gone := make(chan struct{})
	go readLoop(conn, gone)

	// Read the version first so a change racing the push is sent again.
	sent := s.tracker.Version()
	if err := s.push(conn); err != nil {
		return
	}

	check := time.NewTicker(s.feedInterval)
	defer check.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-s.quit:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"))
			return

		case <-gone:
			return

		case <-check.C:
			v := s.tracker.Version()
			if v == sent {
				continue
			}
			if err := s.push(conn); err != nil {
				return
			}
			sent = v

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logWriteError(r, err)
				return
			}
		}
	}
}

func (s *Server) push(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.WriteMessage(websocket.TextMessage, status.FormatCompact(s.tracker.Snapshot()))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		log.Printf("ws: write failed: %v", err)
	}
	return err
}

// readLoop discards client frames so control frames are processed, and
// closes gone when the connection drops.
func readLoop(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func logWriteError(r *http.Request, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	log.Printf("ws: %s: ping failed: %v", r.RemoteAddr, err)
}
