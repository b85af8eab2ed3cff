package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/recollect/internal/transcript"
)

var (
	transcriptsShort bool
	transcriptsLimit int
)

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "List recent Claude Code transcripts",
	Long:  "List recent session transcripts, newest first. --short keeps sessions under 15 minutes.",
	Args:  validArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := transcript.Recent(cfg.Transcripts.Dir, transcriptsLimit, transcriptsShort)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(ts) == 0 {
			fmt.Fprintf(out, "No transcripts found in %s\n", cfg.Transcripts.Dir)
			return nil
		}
		for _, t := range ts {
			started := "unknown"
			if !t.StartedAt.IsZero() {
				started = t.StartedAt.Local().Format(time.DateTime)
			}
			fmt.Fprintf(out, "%s  %5.1f min  %3d user / %3d assistant  %s\n",
				dimColor(started), t.DurationMinutes(),
				t.UserMessageCount, t.AssistantMessageCount,
				boldColor(filepath.Base(filepath.Dir(t.Path))))
			fmt.Fprintf(out, "    %s  %s\n", t.SessionID, humanBytes(t.FileSize))
			if len(t.FilesChanged) > 0 {
				fmt.Fprintf(out, "    files: %d changed\n", len(t.FilesChanged))
			}
		}
		return nil
	},
}

func init() {
	transcriptsCmd.Flags().BoolVar(&transcriptsShort, "short", false, "Only sessions shorter than 15 minutes")
	transcriptsCmd.Flags().IntVarP(&transcriptsLimit, "limit", "n", 20, "Maximum number of transcripts")
}
