package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/testrift/viewer/internal/models"
	"github.com/testrift/viewer/internal/render"
	"github.com/testrift/viewer/internal/timeline"
	"github.com/testrift/viewer/internal/transport"
)

var replayCmd = &cobra.Command{
	Use:   "replay <transcript.jsonl>",
	Short: "Render a recorded test case transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening transcript: %w", err)
		}
		defer f.Close()

		entries, err := transport.ReadTranscript(f, logger)
		if err != nil {
			return err
		}

		builder := timeline.NewBuilder(render.NewTerm(os.Stdout), sessionOptions(logger))
		// A replayed transcript is complete; marking the run finished up
		// front keeps the live indicator off the whole way through.
		builder.Handle(models.RunFinished{Status: models.StatusFinished})
		for _, entry := range entries {
			builder.AddEntry(entry)
		}

		fmt.Fprintf(os.Stderr, "replayed %d entries\n", len(entries))
		return nil
	},
}
