package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/livefir/anchor"
	"github.com/livefir/anchor/internal/axtree"
	"github.com/livefir/anchor/internal/journal"
	"github.com/livefir/anchor/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	recoverBefore   string
	recoverAfter    string
	recoverRemove   string
	recoverTarget   string
	recoverStrategy string
	recoverJournal  string
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Show how a node is recovered after the document changes",
	Long: `Loads --before, anchors the node selected by --target, then either
re-renders the document from --after or removes the node selected by
--remove, and reports what each strategy returns for the stale target.

Selectors are "#dom-id" or role paths such as "main/list/listItem[2]".`,
	Example: `  anchor recover --before inbox.html --after inbox-2.html --target "#open-2"
  anchor recover --before inbox.html --remove main/list --target "#open-2" --strategy all`,
	Args: cobra.NoArgs,
	RunE: runRecover,
}

func init() {
	recoverCmd.Flags().StringVar(&recoverBefore, "before", "", "HTML document to anchor into (required)")
	recoverCmd.Flags().StringVar(&recoverAfter, "after", "", "HTML document that replaces --before")
	recoverCmd.Flags().StringVar(&recoverRemove, "remove", "", "selector of a subtree to remove instead of re-rendering")
	recoverCmd.Flags().StringVar(&recoverTarget, "target", "", "selector of the node to anchor (required)")
	recoverCmd.Flags().StringVar(&recoverStrategy, "strategy", "", "none, ancestry, tree_path or all (default from config)")
	recoverCmd.Flags().StringVar(&recoverJournal, "journal", "", "journal database to record recoveries in (default from config)")
}

func runRecover(cmd *cobra.Command, args []string) error {
	if recoverBefore == "" || recoverTarget == "" {
		return errors.New("--before and --target are required")
	}
	if (recoverAfter == "") == (recoverRemove == "") {
		return errors.New("exactly one of --after or --remove is required")
	}

	kinds, err := recoverKinds(recoverStrategy)
	if err != nil {
		return err
	}

	before, err := os.ReadFile(recoverBefore)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", recoverBefore, err)
	}
	tree, err := axtree.Load(string(before), axtree.WithLogger(logger))
	if err != nil {
		return err
	}
	target, err := tree.Select(recoverTarget)
	if err != nil {
		return err
	}
	targetPath := tree.Path(target)

	collector, err := metrics.NewCollector(cfg.Metrics.Namespace, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	var journalObserver anchor.Observer
	if path := firstNonEmpty(recoverJournal, cfg.Journal.Path); path != "" {
		j, err := journal.Open(cmd.Context(), path, journal.WithLogger(logger))
		if err != nil {
			return err
		}
		defer j.Close()
		journalObserver = j.Observer(cmd.Context(), "recover")
	}

	last := make(map[string]anchor.Event)
	remember := anchor.ObserverFunc(func(e anchor.Event) { last[e.Name] = e })

	strategies := make([]*anchor.Strategy, 0, len(kinds))
	for _, kind := range kinds {
		opts := append(cfg.Options(),
			anchor.WithName(kind.String()),
			anchor.WithLogger(logger),
			anchor.WithObserver(anchor.Observers(collector, journalObserver, remember)))
		strategies = append(strategies, anchor.New(target, kind, opts...))
	}

	if err := mutate(tree); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Target %s at %s", recoverTarget, orDash(targetPath))))

	rows := newTable("strategy", "outcome", "path", "node")
	for _, s := range strategies {
		collector.IncrementRead()
		node := s.Node()

		outcome := "valid"
		if e, ok := last[s.Name()]; ok {
			outcome = e.Outcome.String()
		}
		rows.Row(s.Name(), outcomeStyle(outcome).Render(outcome), orDash(tree.Path(node)), fmt.Sprint(node))
	}
	fmt.Fprintln(out, rows.Render())

	m := collector.GetMetrics()
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d reads, %d recoveries, %.0f%% recovered, %.1f levels descended on average",
		m.Reads, m.Attempts, collector.RecoveryRate(), collector.AverageDescent())))
	return nil
}

func mutate(tree *axtree.Tree) error {
	if recoverAfter != "" {
		after, err := os.ReadFile(recoverAfter)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", recoverAfter, err)
		}
		_, err = tree.Rerender(string(after))
		return err
	}

	victim, err := tree.Select(recoverRemove)
	if err != nil {
		return err
	}
	return tree.Remove(victim)
}

func recoverKinds(name string) ([]anchor.Kind, error) {
	switch name {
	case "":
		return []anchor.Kind{cfg.Kind()}, nil
	case "all":
		return []anchor.Kind{anchor.NoRecovery, anchor.AncestorMatch, anchor.PathDescent}, nil
	}
	kind, ok := anchor.ParseKind(name)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (expected none, ancestry, tree_path or all)", name)
	}
	return []anchor.Kind{kind}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
