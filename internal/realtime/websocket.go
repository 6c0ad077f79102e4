package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// SnapshotFunc loads the current result set of a topic
type SnapshotFunc func(ctx context.Context) (any, error)

// Streamer serves hub topics over WebSocket
type Streamer struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewStreamer creates a streamer. allowOrigin decides which browser origins may connect.
func NewStreamer(hub *Hub, allowOrigin func(origin string) bool, logger *zap.Logger) *Streamer {
	return &Streamer{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin == nil || allowOrigin(origin)
			},
		},
		logger: logger,
	}
}

// Serve upgrades the request, sends the current snapshot and then every
// snapshot published on topic until the client goes away.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, topic string, snapshot SnapshotFunc) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	defer conn.Close()

	// subscribe before loading so no change between the two is lost
	updates, cancel := s.hub.Subscribe(topic)
	defer cancel()

	initial, err := snapshot(r.Context())
	if err != nil {
		s.logger.Error("Failed to load snapshot", zap.String("topic", topic), zap.Error(err))
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "snapshot unavailable"),
			time.Now().Add(writeWait))
		return
	}
	payload, err := json.Marshal(initial)
	if err != nil {
		s.logger.Error("Failed to encode snapshot", zap.String("topic", topic), zap.Error(err))
		return
	}
	if err := write(conn, websocket.TextMessage, payload); err != nil {
		return
	}

	g, ctx := errgroup.WithContext(r.Context())

	// reader: only control frames are expected; any error ends the stream
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	g.Go(func() error {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return err
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return nil
			case payload, ok := <-updates:
				if !ok {
					write(conn, websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
					return nil
				}
				if err := write(conn, websocket.TextMessage, payload); err != nil {
					return err
				}
			case <-ticker.C:
				if err := write(conn, websocket.PingMessage, nil); err != nil {
					return err
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.logger.Debug("Stream closed", zap.String("topic", topic), zap.Error(err))
	}
}

func write(conn *websocket.Conn, messageType int, data []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, data)
}
