// Package transport delivers timeline input from its two sources: a live
// WebSocket stream of framed binary messages, and recorded JSONL
// transcripts replayed from disk. Connection lifecycle policy (reconnect,
// backoff, heartbeat scheduling) belongs to the caller.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// handshakeTimeout bounds the initial dial; steady-state reads are bounded
// by the caller's context.
const handshakeTimeout = 10 * time.Second

// Stream is a live connection delivering framed binary wire messages.
type Stream struct {
	conn *websocket.Conn
	log  *zap.Logger
}

// Dial opens a WebSocket connection to the server's log stream endpoint.
func Dial(ctx context.Context, url string, logger *zap.Logger) (*Stream, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusSwitchingProtocols {
				return nil, fmt.Errorf("dialing %s: %w (status %d)", url, err, resp.StatusCode)
			}
		}
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	logger.Info("log stream connected", zap.String("url", url))
	return &Stream{conn: conn, log: logger}, nil
}

// Next blocks until the next frame arrives and returns its payload. Text
// frames (the seed/replay path sends JSON) and binary frames (live mode,
// requiring full decode) are both returned; the caller distinguishes them
// by the binary flag.
func (s *Stream) Next() (payload []byte, binary bool, err error) {
	msgType, data, err := s.conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			s.log.Warn("log stream closed unexpectedly", zap.Error(err))
		}
		return nil, false, err
	}
	return data, msgType == websocket.BinaryMessage, nil
}

// Close shuts the connection down.
func (s *Stream) Close() error {
	return s.conn.Close()
}
