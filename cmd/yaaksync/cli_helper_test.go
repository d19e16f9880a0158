package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
)

// runCLI executes a fresh root command against an isolated data directory
// and returns what it wrote to stdout.
func runCLI(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()

	color.NoColor = true
	t.Setenv("YAAKSYNC_CONFIG_PATH", "")
	t.Setenv("YAAKSYNC_DATABASE_DSN", "")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{
		"--datadir", dataDir,
		"--config", filepath.Join(dataDir, "config.yaml"),
		"--log-level", "error",
	}, args...))

	err := cmd.Execute()
	return out.String(), err
}
