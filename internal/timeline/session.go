package timeline

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/testrift/viewer/internal/protocol"
)

// Session bundles the per-connection decoder with the builder and the
// elapsed-time ticker. All of its state belongs to one timeline view;
// navigating to a different test case must create a new Session rather
// than mutate this one.
type Session struct {
	ID      string
	Decoder *protocol.Decoder
	Builder *Builder
	Ticker  *Ticker

	log *zap.Logger
}

// NewSession creates a fresh session rendering into sink.
func NewSession(sink Sink, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		ID:      uuid.New().String(),
		Decoder: protocol.NewDecoder(logger),
		Builder: NewBuilder(sink, opts),
		Ticker:  NewTicker(time.Second),
		log:     logger,
	}
}

// HandleFrame decodes one framed binary message and feeds it to the
// builder. Decode failures are logged and reported but never stop the
// session; the next frame is processed normally.
func (s *Session) HandleFrame(frame []byte) error {
	msg, err := s.Decoder.Decode(frame)
	if err != nil {
		s.log.Warn("skipping undecodable frame", zap.Error(err))
		return err
	}
	s.Builder.Handle(msg)
	return nil
}

// ConnectionOpened starts the live indicator and the elapsed ticker.
func (s *Session) ConnectionOpened() {
	s.Builder.ConnectionOpened()
	s.Ticker.Start()
}

// ConnectionClosed removes the live indicator and stops the ticker. Safe to
// call more than once.
func (s *Session) ConnectionClosed() {
	s.Builder.ConnectionClosed()
	s.Ticker.Stop()
}

// Close tears the session down.
func (s *Session) Close() {
	s.ConnectionClosed()
}
