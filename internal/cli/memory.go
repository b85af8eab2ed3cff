package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/lazypower/recollect/internal/engine"
	"github.com/lazypower/recollect/internal/errutil"
	"github.com/lazypower/recollect/internal/store"
)

// --- add command ---

var addSource string

var addCmd = &cobra.Command{
	Use:   "add <category> <significance> <title> <content> [tags]",
	Short: "Store a new memory",
	Long: "Store a new memory. category is one of knowledge, current_state, decision, session;\n" +
		"significance is 1-10; tags are comma separated.",
	Args: validArgs(cobra.RangeArgs(4, 5)),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addSource, "source", "", "Where the memory came from (default manual)")
	searchCmd.Flags().Float64Var(&searchMinStrength, "min-strength", 0, "Skip memories weaker than this (0-1)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", engine.DefaultRecallLimit, "Maximum number of results")
}

func runAdd(cmd *cobra.Command, args []string) error {
	sig, err := strconv.Atoi(args[1])
	if err != nil {
		return errutil.Validation("significance must be an integer 1-10", goerr.V("significance", args[1]))
	}
	var tags []string
	if len(args) == 5 {
		tags = strings.Split(args[4], ",")
	}

	eng, closeFn, err := openEngine()
	if err != nil {
		return err
	}
	defer closeFn()

	m, err := eng.Add(store.AddParams{
		Category:     args[0],
		Significance: sig,
		Title:        args[2],
		Content:      args[3],
		Tags:         tags,
		Source:       addSource,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s memory %s\n", m.Category, m.ID)
	return nil
}

// --- get command ---

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one memory",
	Args:  validArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeFn, err := openEngine()
		if err != nil {
			return err
		}
		defer closeFn()

		m, err := eng.Get(args[0])
		if err != nil {
			return err
		}
		printMemory(cmd.OutOrStdout(), m)
		return nil
	},
}

// --- search command ---

var (
	searchMinStrength float64
	searchLimit       int
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Recall memories by keyword",
	Long:  "Rank memories by keyword overlap with the query. Title and tag matches count double.",
	Args:  validArgs(cobra.MinimumNArgs(1)),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	eng, closeFn, err := openEngine()
	if err != nil {
		return err
	}
	defer closeFn()

	hits, err := eng.Recall(engine.RecallQuery{
		Query:       strings.Join(args, " "),
		MinStrength: searchMinStrength,
		Limit:       searchLimit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(out, "No memories match.")
		return nil
	}
	for i, h := range hits {
		m := h.Memory
		fmt.Fprintf(out, "%d. [%.3f] %s %s\n", i+1, h.Score, boldColor(m.Title), dimColor("["+m.ID+"]"))
		fmt.Fprintf(out, "   %s, significance %d, %s\n", m.Category, m.Significance, stateLabel(m.State))
		fmt.Fprintf(out, "   %s\n\n", oneLine(m.Content, 200))
	}
	return nil
}

// --- export command ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump every memory as text",
	Args:  validArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeFn, err := openEngine()
		if err != nil {
			return err
		}
		defer closeFn()

		text, err := eng.ExportText()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
}
