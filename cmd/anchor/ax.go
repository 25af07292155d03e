package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/livefir/anchor/internal/axtree"
	"github.com/spf13/cobra"
)

var (
	axURL     string
	axFile    string
	axSelect  string
	axTimeout time.Duration
)

var axCmd = &cobra.Command{
	Use:   "ax",
	Short: "Print the accessibility tree of a page or HTML file",
	Long: `Loads the accessibility tree of --url through headless Chrome, or builds
one from the HTML in --file, and prints it. With --select only the matching
node and its role path are printed.`,
	Args: cobra.NoArgs,
	RunE: runAX,
}

func init() {
	axCmd.Flags().StringVar(&axURL, "url", "", "page to load in headless Chrome")
	axCmd.Flags().StringVar(&axFile, "file", "", "HTML file to load instead of a URL")
	axCmd.Flags().StringVar(&axSelect, "select", "", "print only the node matching this selector")
	axCmd.Flags().DurationVar(&axTimeout, "timeout", 30*time.Second, "browser timeout")
}

func runAX(cmd *cobra.Command, args []string) error {
	tree, err := loadAXTree(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if axSelect == "" {
		return tree.Dump(out)
	}

	node, err := tree.Select(axSelect)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n%s\n", titleStyle.Render(orDash(tree.Path(node))), node)
	return nil
}

func loadAXTree(ctx context.Context) (*axtree.Tree, error) {
	switch {
	case axURL != "" && axFile != "":
		return nil, errors.New("--url and --file are mutually exclusive")
	case axURL != "":
		ctx, cancel := context.WithTimeout(ctx, axTimeout)
		defer cancel()
		return axtree.Fetch(ctx, axURL, axtree.WithLogger(logger))
	case axFile != "":
		markup, err := os.ReadFile(axFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", axFile, err)
		}
		return axtree.Load(string(markup), axtree.WithLogger(logger))
	default:
		return nil, errors.New("one of --url or --file is required")
	}
}
