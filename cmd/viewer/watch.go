package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/testrift/viewer/internal/render"
	"github.com/testrift/viewer/internal/timeline"
	"github.com/testrift/viewer/internal/transport"
)

var watchCmd = &cobra.Command{
	Use:   "watch <run-id> <test-case-id>",
	Short: "Stream a test case's log live from the server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()
		return watch(cmd.Context(), logger, args[0], args[1])
	},
}

func watch(parent context.Context, logger *zap.Logger, runID, testCaseID string) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	url := fmt.Sprintf("%s/ws/logs/%s/%s", cfg.ServerURL, runID, testCaseID)
	stream, err := transport.Dial(ctx, url, logger)
	if err != nil {
		return err
	}
	defer stream.Close()

	sess := timeline.NewSession(render.NewTerm(os.Stdout), sessionOptions(logger))
	sess.ConnectionOpened()
	defer sess.Close()

	// Frames arrive on their own goroutine; all timeline state is mutated
	// only from the select loop below.
	type frame struct {
		payload []byte
		binary  bool
		err     error
	}
	frames := make(chan frame)
	go func() {
		defer close(frames)
		for {
			payload, binary, err := stream.Next()
			select {
			case frames <- frame{payload, binary, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-sess.Ticker.Ticks():
			if sess.Builder.State() == timeline.StateLive {
				elapsed := timeline.FormatElapsed(sess.Builder.Elapsed(now))
				fmt.Fprintf(os.Stderr, "\relapsed %s", elapsed)
			}
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			if f.err != nil {
				// Connection errors end the live view, not the program:
				// the indicator is removed and a notice printed.
				sess.ConnectionClosed()
				fmt.Fprintf(os.Stderr, "\nconnection closed: %v\n", f.err)
				return nil
			}
			handleFrame(sess, f.payload, f.binary, logger)
		}
	}
}

// handleFrame feeds one transport frame into the session. Live mode frames
// are binary msgpack; the seed/replay path delivers JSON entries.
func handleFrame(sess *timeline.Session, payload []byte, binary bool, logger *zap.Logger) {
	if binary {
		// Decode failures are already logged by the session.
		_ = sess.HandleFrame(payload)
		return
	}
	entry, err := transport.ParseStreamRecord(payload)
	if err != nil {
		var notice *transport.ServerNotice
		if errors.As(err, &notice) {
			fmt.Fprintf(os.Stderr, "server: %s\n", notice.Message)
			return
		}
		logger.Warn("skipping malformed stream record", zap.Error(err))
		return
	}
	sess.Builder.AddEntry(entry)
}
