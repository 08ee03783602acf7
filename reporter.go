package devserve

import (
	"github.com/tychoish/devserve/console"
	"github.com/tychoish/grip/level"
	"github.com/tychoish/grip/send"
)

// Reporter receives the operator-visible output of a supervisor: status
// lines for every lifecycle transition and tagged child output.
type Reporter interface {
	LineSink
	Success(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
	Info(format string, args ...any)
}

var _ Reporter = (*console.Reporter)(nil)

func defaultReporter() Reporter {
	sender := send.MakePlain()
	sender.SetName("devserve")
	_ = sender.SetLevel(send.LevelInfo{Default: level.Info, Threshold: level.Info})
	return console.NewReporter(sender, console.NewPalette(false))
}
