package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/logsift/logsift/pkg/preset"
	"github.com/logsift/logsift/pkg/report"
	"github.com/logsift/logsift/pkg/types"
)

var (
	presetsFiles   []string
	presetsFormat  string
	presetsInclude string
	presetsExclude string
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage pattern presets",
	Long:  "Commands for listing and checking named pattern presets",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available presets",
	Long:  "Display all available presets with their IDs, names and default unique group",
	RunE:  runPresetsList,
}

var presetsValidateCmd = &cobra.Command{
	Use:   "validate [presets.yml...]",
	Short: "Check presets against their examples",
	Long: `Load the builtin presets and any given preset files, then check that every
pattern compiles, every example matches and no negative example does.`,
	RunE: runPresetsValidate,
}

func init() {
	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsValidateCmd)

	presetsListCmd.Flags().StringArrayVar(&presetsFiles, "presets", nil, "Additional preset file (repeatable)")
	presetsListCmd.Flags().StringVar(&presetsFormat, "format", "table", "Output format: table, json")
	presetsListCmd.Flags().StringVar(&presetsInclude, "include", "", "Include presets whose ID matches regex pattern (comma-separated)")
	presetsListCmd.Flags().StringVar(&presetsExclude, "exclude", "", "Exclude presets whose ID matches regex pattern (comma-separated)")
}

func runPresetsList(cmd *cobra.Command, args []string) error {
	presets, err := preset.NewLoader().LoadAll(presetsFiles...)
	if err != nil {
		return fmt.Errorf("loading presets: %w", err)
	}

	presets, err = preset.Filter(presets, preset.FilterConfig{
		Include: preset.ParsePatterns(presetsInclude),
		Exclude: preset.ParsePatterns(presetsExclude),
	})
	if err != nil {
		return fmt.Errorf("filtering presets: %w", err)
	}

	// Output based on format
	switch presetsFormat {
	case "json":
		return outputPresetsJSON(cmd, presets)
	case "table":
		return report.WritePresets(cmd.OutOrStdout(), presets)
	default:
		return fmt.Errorf("unknown output format: %s", presetsFormat)
	}
}

func runPresetsValidate(cmd *cobra.Command, args []string) error {
	presets, err := preset.NewLoader().LoadAll(args...)
	if err != nil {
		return fmt.Errorf("loading presets: %w", err)
	}
	if err := preset.ValidateAll(presets); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "%d presets OK\n", len(presets))
	}
	return nil
}

func outputPresetsJSON(cmd *cobra.Command, presets []*types.Preset) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(presets)
}
