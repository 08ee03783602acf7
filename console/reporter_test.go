package console

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tychoish/fun/assert/check"
	"github.com/tychoish/grip/level"
	"github.com/tychoish/grip/send"
)

type internalSender interface {
	send.Sender
	HasMessage() bool
}

func drain(sender internalSender, next func() string) []string {
	out := []string{}
	for sender.HasMessage() {
		out = append(out, next())
	}
	return out
}

func TestReporter(t *testing.T) {
	t.Run("Markers", func(t *testing.T) {
		sender := send.MakeInternalLogger()
		reporter := NewReporter(sender, NewPalette(false))

		reporter.Success("%s started (port %d)", "api", 8000)
		reporter.Warning("port %d is busy", 8000)
		reporter.Error("%s exited unexpectedly", "web")
		reporter.Info("starting %s ...", "web")

		check.EqualItems(t, []string{
			"[OK] api started (port 8000)",
			"[!] port 8000 is busy",
			"[ERROR] web exited unexpectedly",
			"[INFO] starting web ...",
		}, drain(sender, func() string { return sender.GetMessage().Message.String() }))
	})
	t.Run("Priorities", func(t *testing.T) {
		sender := send.MakeInternalLogger()
		reporter := NewReporter(sender, NewPalette(false))

		reporter.Warning("careful")
		msg := sender.GetMessage()
		check.Equal(t, level.Warning, msg.Message.Priority())

		reporter.Error("broken")
		msg = sender.GetMessage()
		check.Equal(t, level.Error, msg.Message.Priority())
	})
	t.Run("Lines", func(t *testing.T) {
		sender := send.MakeInternalLogger()
		reporter := NewReporter(sender, NewPalette(false))

		reporter.Line("api", "INFO:     Uvicorn running on http://0.0.0.0:8000")
		reporter.Line("web", "")

		check.EqualItems(t, []string{
			"[api] INFO:     Uvicorn running on http://0.0.0.0:8000",
			"[web] ",
		}, drain(sender, func() string { return sender.GetMessage().Message.String() }))
	})
	t.Run("Banner", func(t *testing.T) {
		sender := send.MakeInternalLogger()
		reporter := NewReporter(sender, NewPalette(false))

		reporter.Banner("development servers are running", "press Ctrl+C to stop")
		lines := drain(sender, func() string { return sender.GetMessage().Message.String() })
		require.Equal(t, 4, len(lines))
		check.Equal(t, strings.Repeat("=", 50), lines[0])
		check.Equal(t, "press Ctrl+C to stop", lines[2])
		check.Equal(t, lines[0], lines[3])
	})
	t.Run("ColorKeepsText", func(t *testing.T) {
		sender := send.MakeInternalLogger()
		reporter := NewReporter(sender, NewPalette(true))

		reporter.Success("api started")
		line := sender.GetMessage().Message.String()
		check.Substring(t, line, MarkerOK)
		check.Substring(t, line, "api started")
	})
	t.Run("ConcurrentLinesStayWhole", func(t *testing.T) {
		sender := send.MakeInternalLogger()
		reporter := NewReporter(sender, NewPalette(false))

		wg := &sync.WaitGroup{}
		for _, tag := range []string{"api", "web", "worker"} {
			wg.Add(1)
			go func(tag string) {
				defer wg.Done()
				for idx := 0; idx < 30; idx++ {
					reporter.Line(tag, fmt.Sprint("line ", idx))
				}
			}(tag)
		}
		wg.Wait()

		next := map[string]int{}
		lines := drain(sender, func() string { return sender.GetMessage().Message.String() })
		check.Equal(t, 90, len(lines))
		for _, line := range lines {
			var tag string
			var idx int
			_, err := fmt.Sscanf(line, "[%s line %d", &tag, &idx)
			require.NoError(t, err)
			tag = strings.TrimSuffix(tag, "]")
			check.Equal(t, next[tag], idx)
			next[tag] = idx + 1
		}
	})
}

func TestPalette(t *testing.T) {
	check.Equal(t, "[OK]", NewPalette(false).paint(NewPalette(false).ok, MarkerOK))
	check.True(t, !DetectPalette(&bytes.Buffer{}).enabled)

	t.Setenv("NO_COLOR", "1")
	check.True(t, !DetectPalette(nil).enabled)
}
