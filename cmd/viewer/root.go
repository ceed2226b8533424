package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/testrift/viewer/internal/config"
	"github.com/testrift/viewer/internal/timeline"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// cfgPath is where the configuration was loaded from and is saved to.
var cfgPath string

var (
	flagServer   string
	flagMode     string
	flagInclude  string
	flagExclude  string
	flagTeardown bool
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:     "viewer",
	Short:   "Render TestRift run logs as a terminal timeline",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		cfgPath = path
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		// Flags override the persisted settings for this invocation.
		if cmd.Flags().Changed("server") {
			cfg.ServerURL = flagServer
		}
		if cmd.Flags().Changed("time-mode") {
			cfg.TimeMode = timeline.ParseTimeMode(flagMode).String()
			// An explicit toggle persists across sessions.
			if err := cfg.Save(cfgPath); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
		}
		if cmd.Flags().Changed("include") {
			cfg.IncludeFilter = flagInclude
		}
		if cmd.Flags().Changed("exclude") {
			cfg.ExcludeFilter = flagExclude
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagServer, "server", "", "server websocket URL (overrides config)")
	pf.StringVar(&flagMode, "time-mode", "", "timestamp mode: absolute or delta")
	pf.StringVar(&flagInclude, "include", "", "only show rows matching this pattern")
	pf.StringVar(&flagExclude, "exclude", "", "hide rows matching this pattern")
	pf.BoolVar(&flagTeardown, "show-teardown", false, "start with the teardown group expanded")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(replayCmd)
}

// newLogger builds the CLI logger: console output on stderr, debug level
// when --verbose is set.
func newLogger() (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if !flagVerbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return zcfg.Build()
}

// sessionOptions builds timeline options from the effective configuration.
func sessionOptions(logger *zap.Logger) timeline.Options {
	return timeline.Options{
		Logger:         logger,
		Filter:         timeline.NewContentFilter(cfg.IncludeFilter, cfg.ExcludeFilter, logger),
		Mode:           timeline.ParseTimeMode(cfg.TimeMode),
		ExpandTeardown: flagTeardown,
	}
}
