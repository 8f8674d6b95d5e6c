package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRun_ExitCodes verifies the exit status for successful, failing and invalid invocations.
func TestRun_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"metadata":`), 0o600))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "formats", args: []string{"formats"}, want: 0},
		{name: "failed import", args: []string{"import", "--log-level", "error", broken}, want: 1},
		{name: "unknown command", args: []string{"export"}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(tt.args))
		})
	}
}
