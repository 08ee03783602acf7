package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tychoish/devserve/testutil"
	"github.com/tychoish/fun/assert/check"
	"github.com/tychoish/grip"
	"github.com/tychoish/grip/level"
)

func TestServe(t *testing.T) {
	t.Run("EnvFlagReachesProcesses", func(t *testing.T) {
		dir := t.TempDir()
		logFile := filepath.Join(dir, "env.log")

		proc := testutil.HelperProcess("env", "env", "FROM_FLAG", "OVERRIDDEN")
		proc.LogFile = logFile
		path := writeServeConfig(t, dir, true, proc)

		out, err := runTestApp(t, ServeCommand, "--config", path, "--no-color",
			"--env", "FROM_FLAG=yes", "-e", "OVERRIDDEN=a=b")
		require.NoError(t, err)

		check.Substring(t, out, "[env] FROM_FLAG=yes")
		check.Substring(t, out, "[env] OVERRIDDEN=a=b")
		check.Substring(t, out, "[OK] env started")
		check.Substring(t, out, "all processes have exited")

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		check.Equal(t, "[env] FROM_FLAG=yes\n[env] OVERRIDDEN=a=b\n", string(data))
	})
	t.Run("MalformedEnvFlag", func(t *testing.T) {
		path := writeServeConfig(t, t.TempDir(), true, testutil.HelperProcess("echo", "lines", "hi"))

		_, err := runTestApp(t, ServeCommand, "--config", path, "--env", "NOVALUE")
		require.Error(t, err)
		check.Substring(t, err.Error(), "KEY=VALUE")
	})
	t.Run("ClearsLogsAtStartup", func(t *testing.T) {
		dir := t.TempDir()
		stale := testutil.WriteFile(t, dir, "backend/debug.log", "old output\n")

		proc := testutil.HelperProcess("echo", "lines", "hi")
		proc.LogFile = filepath.Join(dir, "backend", "devserve.log")
		proc.ClearFiles = []string{stale}
		path := writeServeConfig(t, dir, true, proc)

		out, err := runTestApp(t, ServeCommand, "--config", path, "--no-color")
		require.NoError(t, err)
		check.Substring(t, out, "cleared 1 log file(s)")

		_, err = os.Stat(stale)
		check.True(t, os.IsNotExist(err))
		data, err := os.ReadFile(proc.LogFile)
		require.NoError(t, err)
		check.Equal(t, "[echo] hi\n", string(data))
	})
}

func TestLogThreshold(t *testing.T) {
	prev := grip.Sender().Level()
	defer func() { require.NoError(t, grip.Sender().SetLevel(prev)) }()

	path := testutil.WriteFile(t, t.TempDir(), "devserve.yaml", cliTestConfig)

	_, err := runTestApp(t, ListCommand, "--config", path)
	require.NoError(t, err)
	check.Equal(t, level.Warning, grip.Sender().Level().Threshold)

	_, err = runTestApp(t, ListCommand, "--config", path, "--debug")
	require.NoError(t, err)
	check.Equal(t, level.Debug, grip.Sender().Level().Threshold)
}
