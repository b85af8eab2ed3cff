package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/recollect/internal/store"
)

// --- save-session command ---

var (
	saveProject string
	saveFiles   []string
)

var saveSessionCmd = &cobra.Command{
	Use:   "save-session <summary...>",
	Short: "Record a session summary",
	Long:  "Record a session summary. The oldest sessions are evicted when the store exceeds its byte cap.",
	Args:  validArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeFn, err := openEngine()
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := eng.SaveSession(store.SaveSessionParams{
			Summary:      strings.Join(args, " "),
			Project:      saveProject,
			FilesChanged: saveFiles,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Saved session %s (%s)\n", res.Session.ID, humanBytes(res.Session.SizeBytes))
		if res.Evicted > 0 {
			fmt.Fprintf(out, "Evicted %d oldest sessions\n", res.Evicted)
		}
		return nil
	},
}

// --- sessions command ---

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent sessions",
	Args:  validArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeFn, err := openEngine()
		if err != nil {
			return err
		}
		defer closeFn()

		sessions, err := eng.Sessions(sessionsLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions saved.")
			return nil
		}
		for _, s := range sessions {
			project := s.Project
			if project == "" {
				project = "-"
			}
			fmt.Fprintf(out, "%s  %s  %s\n",
				dimColor(s.CreatedAt.Local().Format(time.DateTime)), boldColor(project), oneLine(s.Summary, 100))
			if len(s.FilesChanged) > 0 {
				fmt.Fprintf(out, "    files: %s\n", strings.Join(s.FilesChanged, ", "))
			}
		}
		return nil
	},
}

func init() {
	saveSessionCmd.Flags().StringVarP(&saveProject, "project", "p", "", "Project name")
	saveSessionCmd.Flags().StringSliceVar(&saveFiles, "files", nil, "Files changed, comma separated")
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 50, "Maximum number of sessions")
}
