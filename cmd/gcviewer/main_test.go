package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gcviewer/backend/internal/prefs"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	t.Cleanup(func() { cmd.SetOut(nil) })
	require.NoError(t, cmd.RunE(cmd, args))
	return buf.String()
}

func TestGroupEncode(t *testing.T) {
	out := run(t, groupEncodeCmd, "/logs/a.log", "/logs/b.log>/logs/b.log.1")
	assert.Equal(t, "file:/logs/a.log;file:/logs/b.log>file:/logs/b.log.1;\n", out)
}

func TestGroupDecodeAndLabel(t *testing.T) {
	encoded := "file:/logs/a.log;file:/logs/b.log>file:/logs/b.log.1;"

	out := run(t, groupDecodeCmd, encoded)
	assert.Equal(t, "0\tsingle\tfile:/logs/a.log\n1\tseries\tfile:/logs/b.log>file:/logs/b.log.1\n", out)

	out = run(t, groupLabelCmd, encoded)
	assert.Equal(t, "a.log;b.log (series, 1 more files);\n", out)

	groupJSON = true
	t.Cleanup(func() { groupJSON = false })
	out = run(t, groupLabelCmd, encoded)
	assert.Contains(t, out, `"label": "a.log;b.log (series, 1 more files);"`)
	assert.Contains(t, out, `"kind": "series"`)
}

func TestPrefsShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefs.FileName)
	require.NoError(t, os.WriteFile(path, []byte("window.width=1024\nview.antialias=false\nrecent.0=file\\:/logs/a.log;\n"), 0644))

	prefsFile = path
	t.Cleanup(func() { prefsFile = "" })

	out := run(t, prefsShowCmd)
	assert.Contains(t, out, "(loaded)")
	assert.Contains(t, out, "window.width=1024\n")
	assert.Contains(t, out, "recent.0=file:/logs/a.log;\n")

	prefsJSON = true
	t.Cleanup(func() { prefsJSON = false })
	out = run(t, prefsShowCmd)
	assert.Contains(t, out, `"width": 1024`)
	assert.Contains(t, out, `"file:/logs/a.log;"`)
}
