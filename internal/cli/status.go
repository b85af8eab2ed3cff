package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/recollect/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show memory and session totals",
	Args:  validArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeFn, err := openEngine()
		if err != nil {
			return err
		}
		defer closeFn()

		st, err := eng.Stats()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Database: %s\n", eng.DB.Path)
		fmt.Fprintf(out, "Memories: %d (%d %s, %d %s, %d %s)\n", st.Total,
			st.Clear, clearColor("clear"), st.Fuzzy, fuzzyColor("fuzzy"), st.Fading, fadingColor("fading"))
		for _, c := range store.Categories {
			fmt.Fprintf(out, "  %-14s %d\n", c, st.ByCategory[c])
		}
		fmt.Fprintf(out, "Average strength: %.2f\n", st.AvgRecallStrength)
		if st.LastDecay != nil {
			fmt.Fprintf(out, "Last decay: %s\n", st.LastDecay.Local().Format(time.DateTime))
		} else {
			fmt.Fprintln(out, "Last decay: never")
		}
		fmt.Fprintf(out, "Sessions: %d (%s of %s)\n", st.Sessions, humanBytes(st.SessionBytes), humanBytes(eng.DB.SessionCap))
		return nil
	},
}
