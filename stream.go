package devserve

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/tychoish/grip"
	"github.com/tychoish/grip/message"
	"github.com/tychoish/grip/recovery"
)

// LineSink receives tagged output lines. Implementations must emit each
// line atomically; lines from different tags may interleave.
type LineSink interface {
	Line(tag, text string)
}

// StreamOutput forwards every line read from r to sink, tagged, until r
// reaches end-of-stream, and then closes r. Read errors, which happen
// when a killed child's pipe is torn down, are treated as end-of-stream.
// The function blocks; callers run it on its own goroutine.
func StreamOutput(r io.ReadCloser, tag string, sink LineSink) {
	defer recovery.LogStackTraceAndContinue("output streamer")
	defer r.Close()

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			sink.Line(tag, strings.TrimRight(line, "\r\n"))
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				grip.Debug(message.WrapError(err, message.Fields{
					"message": "output stream ended with error",
					"process": tag,
				}))
			}
			return
		}
	}
}

type teeSink []LineSink

func (t teeSink) Line(tag, text string) {
	for _, s := range t {
		s.Line(tag, text)
	}
}
