package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestRunExplore_MissingDatabase(t *testing.T) {
	exploreDatabase = filepath.Join(t.TempDir(), "missing.db")
	exploreScanID = 0

	err := runExplore(&cobra.Command{}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "database not found")
}
