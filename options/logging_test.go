package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tychoish/fun/assert"
	"github.com/tychoish/fun/assert/check"
	"github.com/tychoish/grip/level"
	"github.com/tychoish/grip/message"
)

func TestLogFileOptions(t *testing.T) {
	t.Run("NoLogFile", func(t *testing.T) {
		opts := &Process{Name: "web", Command: "npm run dev"}
		check.True(t, opts.LogOutput(true) == nil)
	})
	t.Run("Validate", func(t *testing.T) {
		check.Error(t, (&LogFileOptions{Name: "api"}).Validate())
		check.Error(t, (&LogFileOptions{Filename: "debug.log"}).Validate())
		check.NotError(t, (&LogFileOptions{Name: "api", Filename: "debug.log"}).Validate())
	})
	t.Run("TruncatesExistingFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "debug.log")
		require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

		proc := &Process{Name: "api", Command: "x", LogFile: path}
		sender, cleared, err := proc.LogOutput(true).Configure()
		require.NoError(t, err)
		check.True(t, cleared)

		msg := message.MakeString("[api] started")
		msg.SetPriority(level.Info)
		sender.Send(msg)
		assert.NotError(t, sender.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		check.Equal(t, "[api] started\n", string(data))
	})
	t.Run("KeepsExistingFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "debug.log")
		require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

		proc := &Process{Name: "api", Command: "x", LogFile: path}
		sender, cleared, err := proc.LogOutput(false).Configure()
		require.NoError(t, err)
		check.True(t, !cleared)
		assert.NotError(t, sender.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		check.Substring(t, string(data), "previous run")
	})
	t.Run("MissingDirectory", func(t *testing.T) {
		proc := &Process{Name: "api", Command: "x", LogFile: filepath.Join(t.TempDir(), "nope", "debug.log")}
		_, cleared, err := proc.LogOutput(true).Configure()
		check.Error(t, err)
		check.True(t, !cleared)
	})
	t.Run("ClearLogs", func(t *testing.T) {
		dir := t.TempDir()
		stale := filepath.Join(dir, "backend", "debug.log")
		writeTestFile(t, stale, "previous run\n")

		proc := &Process{
			Name:       "api",
			Command:    "x",
			LogFile:    filepath.Join(dir, "backend", DefaultLogFile),
			ClearFiles: []string{stale, filepath.Join(dir, "backend", "missing.log")},
		}
		removed, err := proc.ClearLogs()
		require.NoError(t, err)
		check.Equal(t, 1, removed)
		_, err = os.Stat(stale)
		check.True(t, os.IsNotExist(err))

		removed, err = proc.ClearLogs()
		check.NotError(t, err)
		check.Equal(t, 0, removed)
	})
	t.Run("ClearLogsReportsFailures", func(t *testing.T) {
		dir := t.TempDir()
		busy := filepath.Join(dir, "busy")
		writeTestFile(t, filepath.Join(busy, "keep"), "x")

		proc := &Process{Name: "api", Command: "x", ClearFiles: []string{busy}}
		removed, err := proc.ClearLogs()
		check.Error(t, err)
		check.Equal(t, 0, removed)
	})
}
