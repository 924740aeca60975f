package internal

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func captureConsole(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	SetConsoleOutput(&out, &errOut)
	t.Cleanup(func() { SetConsoleOutput(os.Stdout, os.Stderr) })
	return &out, &errOut
}

func TestLoggerSeparatesWarningsFromOutput(t *testing.T) {
	color.NoColor = true
	out, errOut := captureConsole(t)

	var txt bytes.Buffer
	TxtLog.Out = &txt
	defer func() { TxtLog.Out = io.Discard }()

	log := NewLogger("inventory")
	log.Info("Enumerating projects")
	log.Success("Collected 3 projects")
	log.Warn("Failed to fetch Pipelines for beta")
	log.Errorf("Export failed: %s", "disk full")

	assert.Contains(t, out.String(), "[inventory] Enumerating projects")
	assert.Contains(t, out.String(), "[inventory] Collected 3 projects")
	assert.NotContains(t, out.String(), "Pipelines for beta")
	assert.NotContains(t, out.String(), "disk full")

	assert.Contains(t, errOut.String(), "[inventory] Failed to fetch Pipelines for beta")
	assert.Contains(t, errOut.String(), "[inventory] Export failed: disk full")
	assert.NotContains(t, errOut.String(), "Enumerating projects")

	assert.Contains(t, txt.String(), "Failed to fetch Pipelines for beta")
	assert.Contains(t, txt.String(), "module=inventory")
	assert.NotContains(t, txt.String(), "Enumerating projects")
}
