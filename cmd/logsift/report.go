package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/logsift/logsift/pkg/report"
	"github.com/logsift/logsift/pkg/store"
)

var (
	reportDatabase string
	reportScanID   int64
	reportFormat   string
	reportColor    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from stored scans",
	Long: `Read scans stored with "scan --db" and print them.

Without --scan, lists the stored scans. With --scan, prints that scan's
matches in the requested format, exactly as the scan command would have.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDatabase, "db", "logsift.db", "Path to the scan database")
	reportCmd.Flags().Int64Var(&reportScanID, "scan", 0, "Scan ID to report (0 lists all scans)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, jsonl, values, table, sarif")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportDatabase != store.MemoryPath {
		if _, err := os.Stat(reportDatabase); err != nil {
			return fmt.Errorf("database not found: %s", reportDatabase)
		}
	}

	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}

	s, err := store.New(store.Config{Path: reportDatabase})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	if reportScanID == 0 {
		return listScans(cmd, s, format)
	}

	rec, err := s.GetScan(reportScanID)
	if err != nil {
		return fmt.Errorf("loading scan %d: %w", reportScanID, err)
	}
	if rec.Matches, err = s.GetMatches(rec.ID); err != nil {
		return fmt.Errorf("loading matches: %w", err)
	}
	if rec.Errors, err = s.GetSourceErrors(rec.ID); err != nil {
		return fmt.Errorf("loading source errors: %w", err)
	}

	opts := report.Options{Color: report.ColorEnabled(reportColor, outputFile(cmd))}
	return report.Write(cmd.OutOrStdout(), format, rec, opts)
}

func listScans(cmd *cobra.Command, s store.Store, format report.Format) error {
	scans, err := s.GetScans()
	if err != nil {
		return fmt.Errorf("listing scans: %w", err)
	}

	if format == report.FormatJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(scans)
	}
	if len(scans) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No scans stored.")
		return nil
	}
	return report.WriteScans(cmd.OutOrStdout(), scans)
}

// outputFile returns the command's output as a file, or nil when it is
// redirected to something else (e.g. a buffer in tests).
func outputFile(cmd *cobra.Command) *os.File {
	f, _ := cmd.OutOrStdout().(*os.File)
	return f
}
