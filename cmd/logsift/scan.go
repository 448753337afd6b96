package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/logsift/logsift/pkg/config"
	"github.com/logsift/logsift/pkg/preset"
	"github.com/logsift/logsift/pkg/report"
	"github.com/logsift/logsift/pkg/scanner"
	"github.com/logsift/logsift/pkg/source"
	"github.com/logsift/logsift/pkg/store"
	"github.com/logsift/logsift/pkg/types"
)

var (
	scanUniqueGroup   string
	scanPreset        string
	scanPresetFiles   []string
	scanBatchSize     int
	scanWorkers       int
	scanMaxLineBytes  int
	scanMatchTimeout  time.Duration
	scanAbortOnError  bool
	scanIgnoreCase    bool
	scanKeywords      []string
	scanFormat        string
	scanColor         string
	scanDatabase      string
	scanIncludeHidden bool
	scanMaxFileSize   int64
	scanConfigPath    string
	scanSummary       bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <pattern> [path...] | scan --preset <id> [path...]",
	Short: "Scan sources for a pattern",
	Long: `Scan files, directories, glob patterns or standard input for a regular
expression and print the matches in the order they were found.

With --unique-group only the first match for each distinct value of that
capture group is kept. Directories are walked in lexical order and "-"
(or no path at all) reads standard input.

Sources that cannot be read are reported on stderr and make the command
exit with a non-zero status; matches from the other sources are still
printed.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanUniqueGroup, "unique-group", "u", "", "Keep the first match per distinct value of this capture group (index or name)")
	scanCmd.Flags().StringVarP(&scanPreset, "preset", "p", "", "Use a named preset instead of a pattern argument")
	scanCmd.Flags().StringArrayVar(&scanPresetFiles, "presets", nil, "Additional preset file (repeatable)")
	scanCmd.Flags().IntVar(&scanBatchSize, "batch-size", scanner.DefaultBatchSize, "Lines read per batch")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 1, "Sources read concurrently (output order is unaffected)")
	scanCmd.Flags().IntVar(&scanMaxLineBytes, "max-line-bytes", scanner.DefaultMaxLineBytes, "Longest accepted line (bytes)")
	scanCmd.Flags().DurationVar(&scanMatchTimeout, "match-timeout", 0, "Regex time limit per line (0 for the default)")
	scanCmd.Flags().BoolVar(&scanAbortOnError, "abort-on-error", false, "Stop at the first source that cannot be read")
	scanCmd.Flags().BoolVarP(&scanIgnoreCase, "ignore-case", "i", false, "Match case-insensitively")
	scanCmd.Flags().StringArrayVarP(&scanKeywords, "keyword", "k", nil, "Only evaluate lines containing this keyword (repeatable)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "human", "Output format: human, json, jsonl, values, table, sarif")
	scanCmd.Flags().StringVar(&scanColor, "color", "auto", "Color output: auto, always, never")
	scanCmd.Flags().StringVar(&scanDatabase, "db", "", "Store the scan in this SQLite database")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 0, "Skip walked files larger than this (bytes, 0 for no limit)")
	scanCmd.Flags().StringVar(&scanConfigPath, "config", "", "Config file (default: .logsift.yml and ~/.config/logsift/config.yml)")
	scanCmd.Flags().BoolVar(&scanSummary, "summary", false, "Print per-source statistics to stderr")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	stderr := cmd.ErrOrStderr()

	fc, err := loadScanConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := applyFileConfig(cmd, fc); err != nil {
		return err
	}

	cfg, paths, err := buildScanConfig(args, fc.Presets)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(scanFormat)
	if err != nil {
		return err
	}

	paths, err = source.Expand(ctx, paths, source.ExpandConfig{
		IncludeHidden: scanIncludeHidden,
		MaxFileSize:   scanMaxFileSize,
	})
	if err != nil {
		return fmt.Errorf("expanding paths: %w", err)
	}

	if verbose && !quiet {
		cfg.Logger = &stderrLogger{w: stderr}
	}

	engine, err := scanner.New(cfg)
	if err != nil {
		return err
	}

	startedAt := time.Now()
	result, err := engine.Scan(ctx, source.Files(paths))
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	rec := &types.ScanRecord{
		Pattern:     cfg.Pattern,
		UniqueGroup: engine.UniqueGroup(),
		StartedAt:   startedAt,
		Stats:       result.Stats,
		Matches:     result.Matches,
		Errors:      result.Errors,
	}

	if scanDatabase != "" {
		if err := storeScan(rec); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(stderr, "Scan %d stored in: %s\n", rec.ID, scanDatabase)
		}
	}

	opts := report.Options{Color: report.ColorEnabled(scanColor, outputFile(cmd))}
	if err := report.Write(cmd.OutOrStdout(), format, rec, opts); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if scanSummary && format != report.FormatTable {
		if err := report.WriteSummary(stderr, rec.Stats); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}

	// Verbose mode already logged each error as it happened.
	if !verbose {
		warn := color.New(color.FgYellow)
		errFile, _ := stderr.(*os.File)
		if !report.ColorEnabled(scanColor, errFile) {
			warn.DisableColor()
		}
		for _, e := range result.Errors {
			warn.Fprintf(stderr, "[warn] %v\n", e)
		}
	}

	if failed := result.FailedSources(); len(failed) > 0 {
		return fmt.Errorf("%d of %d sources failed", len(failed), len(paths))
	}
	return nil
}

// loadScanConfig reads --config, or the global and project config files.
func loadScanConfig() (config.FileConfig, error) {
	if scanConfigPath != "" {
		return config.LoadFile(scanConfigPath)
	}
	return config.Load(".")
}

// applyFileConfig copies config file values into the flag variables the
// user did not set explicitly.
func applyFileConfig(cmd *cobra.Command, fc config.FileConfig) error {
	unset := func(name string) bool {
		return !cmd.Flags().Changed(name)
	}

	if fc.BatchSize != nil && unset("batch-size") {
		scanBatchSize = *fc.BatchSize
	}
	if fc.Workers != nil && unset("workers") {
		scanWorkers = *fc.Workers
	}
	if fc.MaxLineBytes != nil && unset("max-line-bytes") {
		scanMaxLineBytes = *fc.MaxLineBytes
	}
	if fc.MatchTimeout != nil && unset("match-timeout") {
		d, err := fc.GetMatchTimeout()
		if err != nil {
			return err
		}
		scanMatchTimeout = d
	}
	if fc.AbortOnError != nil && unset("abort-on-error") {
		scanAbortOnError = *fc.AbortOnError
	}
	if fc.IgnoreCase != nil && unset("ignore-case") {
		scanIgnoreCase = *fc.IgnoreCase
	}
	if fc.IncludeHidden != nil && unset("include-hidden") {
		scanIncludeHidden = *fc.IncludeHidden
	}
	if fc.MaxFileSize != nil && unset("max-file-size") {
		scanMaxFileSize = *fc.MaxFileSize
	}
	if fc.Color != nil && unset("color") {
		scanColor = fc.GetColor()
	}
	if fc.Format != nil && unset("format") {
		scanFormat = *fc.Format
	}
	if fc.Database != nil && unset("db") {
		scanDatabase = *fc.Database
	}
	return nil
}

// buildScanConfig resolves the pattern, either the first argument or a
// preset, and returns the scanner configuration and the remaining paths.
func buildScanConfig(args []string, configPresets []string) (scanner.Config, []string, error) {
	var cfg scanner.Config
	paths := args

	if scanPreset != "" {
		files := make([]string, 0, len(configPresets)+len(scanPresetFiles))
		files = append(files, configPresets...)
		files = append(files, scanPresetFiles...)

		presets, err := preset.NewLoader().LoadAll(files...)
		if err != nil {
			return cfg, nil, fmt.Errorf("loading presets: %w", err)
		}
		p, err := preset.Find(presets, scanPreset)
		if err != nil {
			return cfg, nil, err
		}
		cfg.Pattern = p.Pattern
		cfg.UniqueGroup = p.UniqueGroup
		cfg.Keywords = p.Keywords
	} else {
		if len(args) == 0 {
			return cfg, nil, errors.New("a pattern argument or --preset is required")
		}
		cfg.Pattern = args[0]
		paths = args[1:]
	}

	if len(paths) == 0 {
		paths = []string{source.StdinID}
	}

	if scanUniqueGroup != "" {
		cfg.UniqueGroup = nil
		if n, err := strconv.Atoi(scanUniqueGroup); err == nil {
			cfg.UniqueGroup = &n
		} else {
			cfg.UniqueGroupName = scanUniqueGroup
		}
	}
	if len(scanKeywords) > 0 {
		cfg.Keywords = scanKeywords
	}

	cfg.BatchSize = scanBatchSize
	cfg.Workers = scanWorkers
	cfg.MaxLineBytes = scanMaxLineBytes
	cfg.MatchTimeout = scanMatchTimeout
	cfg.AbortOnError = scanAbortOnError
	cfg.IgnoreCase = scanIgnoreCase

	return cfg, paths, nil
}

func storeScan(rec *types.ScanRecord) error {
	s, err := store.New(store.Config{Path: scanDatabase})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer s.Close()

	id, err := s.AddScan(rec)
	if err != nil {
		return fmt.Errorf("storing scan: %w", err)
	}
	rec.ID = id
	return nil
}

// stderrLogger prints engine diagnostics in verbose mode.
type stderrLogger struct {
	w io.Writer
}

func (l *stderrLogger) Log(format string, args ...interface{}) {
	fmt.Fprintf(l.w, format+"\n", args...)
}
