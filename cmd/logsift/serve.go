package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/logsift/logsift/pkg/preset"
	"github.com/logsift/logsift/pkg/serve"
)

var (
	servePresetFiles []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a long-lived NDJSON scan server",
	Long: `Run logsift as a long-lived server that accepts scan requests on stdin
and writes results to stdout, one JSON object per line.

Presets are loaded once at startup and compiled patterns are cached between
requests. The server exits when stdin closes, on a "close" request, or on
SIGINT/SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringArrayVar(&servePresetFiles, "presets", nil, "Additional preset file (repeatable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	presets, err := preset.NewLoader().LoadAll(servePresetFiles...)
	if err != nil {
		return fmt.Errorf("loading presets: %w", err)
	}

	srv := serve.NewServer(presets, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(commandContext(cmd))
}
