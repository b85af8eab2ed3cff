package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lazypower/recollect/internal/config"
	"github.com/lazypower/recollect/internal/hooks"
	"github.com/lazypower/recollect/internal/logging"
)

// Hooks must never fail Claude Code: every error is logged and the process exits 0.

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Handle Claude Code hook events",
	// A broken config must not fail the hook; fall back to defaults.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			logging.Default().Warn("hook: load config, using defaults", "error", err)
			c = config.Default()
			if err := resolvePaths(&c); err != nil {
				logging.Default().Warn("hook: resolve paths", "error", err)
			}
		}
		cfg = c
		logging.SetDefault(logging.New(os.Stderr, logLevel(cfg)))
		return nil
	},
}

var hookStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Handle SessionStart hook",
	Args:  cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runHook("start")
	},
}

var hookEndCmd = &cobra.Command{
	Use:   "end",
	Short: "Handle SessionEnd hook",
	Args:  cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runHook("end")
	},
}

func init() {
	hookCmd.AddCommand(hookStartCmd)
	hookCmd.AddCommand(hookEndCmd)
}

func runHook(event string) {
	log := logging.Default()

	eng, closeFn, err := openEngine()
	if err != nil {
		log.Warn("hook: open store", "event", event, "error", err)
		if event == "start" {
			if err := hooks.WriteSessionStartOutput(os.Stdout, ""); err != nil {
				log.Warn("hook: write output", "error", err)
			}
		}
		return
	}
	defer closeFn()

	h := &hooks.Handler{
		Engine:        eng,
		TranscriptDir: cfg.Transcripts.Dir,
		Out:           os.Stdout,
		Log:           log,
	}
	h.Handle(event, os.Stdin)
}
