package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/livefir/anchor/internal/journal"
	"github.com/spf13/cobra"
)

var (
	journalPath  string
	journalLimit int
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the recovery journal",
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent recoveries, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count recoveries by strategy and outcome",
	Args:  cobra.NoArgs,
	RunE:  runJournalSummary,
}

func init() {
	journalCmd.PersistentFlags().StringVar(&journalPath, "path", "", "journal database (default from config)")
	journalListCmd.Flags().IntVar(&journalLimit, "limit", 20, "entries to show, 0 for all")

	journalCmd.AddCommand(journalListCmd, journalSummaryCmd)
}

func openJournal(cmd *cobra.Command) (*journal.Journal, error) {
	path := firstNonEmpty(journalPath, cfg.Journal.Path)
	if path == "" {
		return nil, errors.New("no journal configured: pass --path or set journal.path")
	}
	return journal.Open(cmd.Context(), path, journal.WithLogger(logger))
}

func runJournalList(cmd *cobra.Command, args []string) error {
	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.List(cmd.Context(), journalLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No recoveries recorded."))
		return nil
	}

	rows := newTable("id", "time", "name", "strategy", "outcome", "ancestor", "descended", "depth")
	for _, e := range entries {
		rows.Row(
			strconv.FormatInt(e.ID, 10),
			e.RecordedAt.Format("2006-01-02 15:04:05"),
			e.Name,
			e.Kind,
			outcomeStyle(e.Outcome).Render(e.Outcome),
			strconv.Itoa(e.AncestorIndex),
			strconv.Itoa(e.Descended),
			strconv.Itoa(e.Depth),
		)
	}
	fmt.Fprintln(out, rows.Render())
	return nil
}

func runJournalSummary(cmd *cobra.Command, args []string) error {
	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	summary, err := j.Summary(cmd.Context())
	if err != nil {
		return err
	}

	rows := newTable("strategy", "outcome", "count")
	var total int64
	for _, row := range summary {
		rows.Row(row.Kind, outcomeStyle(row.Outcome).Render(row.Outcome), strconv.FormatInt(row.Count, 10))
		total += row.Count
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, rows.Render())
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d recoveries", total)))
	return nil
}
