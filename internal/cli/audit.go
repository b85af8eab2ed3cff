package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lazypower/recollect/internal/engine"
	"github.com/lazypower/recollect/internal/llm"
)

var (
	auditDays   int
	auditDryRun bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Ask the LLM what recent sessions said that memory missed",
	Long: "Extract recent conversation text, export every memory and ask the configured LLM\n" +
		"to compare them. The findings are written to audit_<timestamp>.md beside the database.\n" +
		"The store is never modified.",
	Args: validArgs(cobra.NoArgs),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().IntVar(&auditDays, "days", 7, "How many days of transcripts to read")
	auditCmd.Flags().BoolVar(&auditDryRun, "dry-run", false, "Report sizes without calling the LLM")
}

func runAudit(cmd *cobra.Command, args []string) error {
	eng, closeFn, err := openEngine()
	if err != nil {
		return err
	}
	defer closeFn()

	if !auditDryRun {
		client, err := llm.NewClient(cfg.LLM)
		if err != nil {
			return err
		}
		eng.LLM = client
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := eng.Audit(ctx, engine.AuditOptions{
		Days:   auditDays,
		DryRun: auditDryRun,
		OutDir: filepath.Dir(cfg.Database.Path),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rep.Chat.Sessions == 0 {
		fmt.Fprintf(out, "No sessions in the last %d days.\n", rep.Days)
		return nil
	}

	fmt.Fprintf(out, "Chat: %d sessions, %d user msgs, %d assistant msgs (~%d tokens)\n",
		rep.Chat.Sessions, rep.Chat.UserMessages, rep.Chat.AssistantMessages, rep.Chat.EstTokens)
	fmt.Fprintf(out, "Skipped: %d tool blocks, %d system messages, %d long turns cut\n",
		rep.Chat.SkippedToolBlocks, rep.Chat.SkippedSystem, rep.Chat.TruncatedTurns)
	fmt.Fprintf(out, "Memories: %d (~%d tokens)\n", rep.Memories, rep.MemoryEstTokens)
	fmt.Fprintf(out, "Total: ~%d tokens\n", rep.TotalEstTokens)

	if rep.DryRun {
		fmt.Fprintln(out, "Dry run: nothing sent.")
		return nil
	}

	fmt.Fprintf(out, "\n%s\n\n", rep.Response.Content)
	fmt.Fprintf(out, "%s %s: %d input, %d output tokens\n",
		rep.Response.Provider, rep.Response.Model, rep.Response.InputTokens, rep.Response.OutputTokens)
	fmt.Fprintf(out, "Saved: %s\n", rep.OutputPath)
	return nil
}
