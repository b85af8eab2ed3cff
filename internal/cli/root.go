package cli

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/lazypower/recollect/internal/config"
	"github.com/lazypower/recollect/internal/engine"
	"github.com/lazypower/recollect/internal/errutil"
	"github.com/lazypower/recollect/internal/logging"
	"github.com/lazypower/recollect/internal/store"
)

var (
	flagDB      string
	flagConfig  string
	flagVerbose bool

	// cfg is loaded once per invocation by the root pre-run.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "recollect",
	Short: "Decaying memory for AI coding sessions",
	Long: "Recollect keeps memories that fade unless they matter: significance sets how slowly\n" +
		"a memory decays, recall ranks by keyword overlap, and session summaries are kept\n" +
		"under a fixed byte cap.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDB, "db", "", "Database path (default ~/.recollect/memory.db)")
	pf.StringVar(&flagConfig, "config", "", "Config file (default ~/.recollect/config.toml)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging on stderr")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errutil.Validation(err.Error(), goerr.V("command", cmd.CommandPath()))
	})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(decayCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(saveSessionCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(transcriptsCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hookCmd)
}

// validArgs reports a bad argument count as a validation error so it exits 2.
func validArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return errutil.Validation(err.Error(), goerr.V("command", cmd.CommandPath()))
		}
		return nil
	}
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = c
	logging.SetDefault(logging.New(os.Stderr, logLevel(cfg)))
	return nil
}

func logLevel(c config.Config) slog.Level {
	if flagVerbose {
		return slog.LevelDebug
	}
	return logging.ParseLevel(c.Log.Level)
}

// configPath resolves the config file: --config, then RECOLLECT_CONFIG, then
// the default path. explicit is false only for the default.
func configPath() (path string, explicit bool) {
	if flagConfig != "" {
		return flagConfig, true
	}
	if p := os.Getenv("RECOLLECT_CONFIG"); p != "" {
		return p, true
	}
	p, err := config.DefaultPath()
	if err != nil {
		return "", false
	}
	return p, false
}

func loadConfig() (config.Config, error) {
	c, err := config.Load(configPath())
	if err != nil {
		return c, err
	}
	return c, resolvePaths(&c)
}

// resolvePaths applies --db and fills in default database and transcript paths.
func resolvePaths(c *config.Config) error {
	if flagDB != "" {
		c.Database.Path = flagDB
	}
	if c.Database.Path == "" {
		p, err := config.DefaultDBPath()
		if err != nil {
			return errutil.Storage(err, "resolve database path")
		}
		c.Database.Path = p
	}
	if c.Transcripts.Dir == "" {
		if p, err := config.DefaultTranscriptDir(); err == nil {
			c.Transcripts.Dir = p
		}
	}
	return nil
}

// openEngine opens the configured database and wraps it in an engine with no
// LLM client. The returned func closes both.
func openEngine() (*engine.Engine, func(), error) {
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	db.SessionCap = cfg.Sessions.CapBytes

	eng := engine.New(db, nil, logging.Default())
	eng.TranscriptDir = cfg.Transcripts.Dir
	return eng, func() {
		eng.Stop()
		db.Close()
	}, nil
}
