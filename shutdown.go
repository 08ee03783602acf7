package devserve

import (
	"context"
	"time"

	"github.com/tychoish/devserve/executor"
	"github.com/tychoish/grip"
	"github.com/tychoish/grip/message"
)

// shutdown sends the graceful signal, waits up to timeout for exited to
// close, then kills the child and waits for exit without a bound. It
// returns only once the child is confirmed gone. A canceled ctx skips
// the rest of the graceful wait.
func shutdown(ctx context.Context, name string, exec executor.Executor, exited <-chan struct{}, timeout time.Duration, reporter Reporter) {
	select {
	case <-exited:
		return
	default:
	}

	if err := exec.Terminate(); err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message": "problem sending graceful signal",
			"process": name,
			"pid":     exec.PID(),
		}))
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-exited:
		return
	case <-timer.C:
		reporter.Info("%s did not exit within %s, forcing termination", name, timeout)
		grip.Debug(message.WrapError(ErrShutdownTimeout, message.Fields{
			"process": name,
			"pid":     exec.PID(),
			"timeout": timeout.String(),
		}))
	case <-ctx.Done():
		reporter.Info("%s: shutdown canceled, forcing termination", name)
	}

	if err := exec.Kill(); err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message": "problem killing process",
			"process": name,
			"pid":     exec.PID(),
		}))
	}

	<-exited
}
