package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Recompute recall strength and prune forgotten memories",
	Args:  validArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeFn, err := openEngine()
		if err != nil {
			return err
		}
		defer closeFn()

		rep, err := eng.RunDecay(eng.DB.Now())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Decay: %d %s, %d %s, %d %s (%d updated)\n",
			rep.Clear, clearColor("clear"),
			rep.Fuzzy, fuzzyColor("fuzzy"),
			rep.Fading, fadingColor("fading"),
			rep.Updated)
		fmt.Fprintf(out, "Pruned %d memories\n", rep.Pruned)
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove memories below the forget floor",
	Long:  "Remove decaying memories whose stored strength is below the forget floor. Significance 10 is never removed.",
	Args:  validArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeFn, err := openEngine()
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := eng.Prune()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d memories\n", n)
		return nil
	},
}
