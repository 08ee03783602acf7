package console

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tychoish/grip/level"
	"github.com/tychoish/grip/message"
	"github.com/tychoish/grip/send"
)

const (
	MarkerOK      = "[OK]"
	MarkerWarning = "[!]"
	MarkerError   = "[ERROR]"
	MarkerInfo    = "[INFO]"
)

// Reporter writes status and tagged output lines to a grip sender. All
// emission is serialized, so every line reaches the sender whole.
type Reporter struct {
	mu      sync.Mutex
	sender  send.Sender
	palette Palette
}

// NewReporter wraps sender. The sender's priority threshold still
// applies; the CLI uses a plain sender at info.
func NewReporter(sender send.Sender, palette Palette) *Reporter {
	return &Reporter{sender: sender, palette: palette}
}

func (r *Reporter) Success(format string, args ...any) {
	r.status(level.Info, r.palette.paint(r.palette.ok, MarkerOK), format, args...)
}

func (r *Reporter) Warning(format string, args ...any) {
	r.status(level.Warning, r.palette.paint(r.palette.warning, MarkerWarning), format, args...)
}

func (r *Reporter) Error(format string, args ...any) {
	r.status(level.Error, r.palette.paint(r.palette.err, MarkerError), format, args...)
}

func (r *Reporter) Info(format string, args ...any) {
	r.status(level.Info, r.palette.paint(r.palette.info, MarkerInfo), format, args...)
}

// Line emits one line of child output prefixed with its tag.
func (r *Reporter) Line(tag, text string) {
	r.send(level.Info, fmt.Sprint(r.palette.paint(r.palette.tag, "["+tag+"]"), " ", text))
}

// Banner frames title between two rules.
func (r *Reporter) Banner(title ...string) {
	rule := strings.Repeat("=", 50)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sendLocked(level.Info, rule)
	for _, t := range title {
		r.sendLocked(level.Info, t)
	}
	r.sendLocked(level.Info, rule)
}

func (r *Reporter) status(p level.Priority, marker, format string, args ...any) {
	r.send(p, fmt.Sprint(marker, " ", fmt.Sprintf(format, args...)))
}

func (r *Reporter) send(p level.Priority, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sendLocked(p, text)
}

func (r *Reporter) sendLocked(p level.Priority, text string) {
	m := message.MakeString(text)
	m.SetPriority(p)
	r.sender.Send(m)
}
