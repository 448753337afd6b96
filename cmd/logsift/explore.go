package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/logsift/logsift/pkg/explore"
	"github.com/spf13/cobra"
)

var (
	exploreDatabase string
	exploreScanID   int64
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Interactively explore a stored scan",
	Long: `Launch an interactive TUI to browse the matches of a stored scan.

Features:
  - Three-pane layout: filters, distinct values, occurrence details
  - Faceted filtering by source and occurrence count
  - Vi-style navigation (hjkl, Ctrl-f/b, g/G)
  - Opens the matching line of a file source in $PAGER
  - Sortable values table`,
	Args: cobra.NoArgs,
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().StringVar(&exploreDatabase, "db", "logsift.db", "Path to the scan database")
	exploreCmd.Flags().Int64Var(&exploreScanID, "scan", 0, "Scan ID to explore (default: most recent)")
}

func runExplore(cmd *cobra.Command, args []string) error {
	model, err := explore.New(exploreDatabase, exploreScanID)
	if err != nil {
		return fmt.Errorf("loading scan: %w", err)
	}
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(commandContext(cmd)))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running explore TUI: %w", err)
	}

	return nil
}
