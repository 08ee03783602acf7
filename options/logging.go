package options

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tychoish/fun/erc"
	"github.com/tychoish/grip/level"
	"github.com/tychoish/grip/send"
)

// LogFileOptions describes the file that receives a copy of one process's
// output.
type LogFileOptions struct {
	Name     string
	Filename string
	// Truncate removes an existing file before it is opened.
	Truncate bool
}

// LogOutput returns the log file options for the process, or nil when the
// process does not log to a file.
func (opts *Process) LogOutput(truncate bool) *LogFileOptions {
	if opts.LogFile == "" {
		return nil
	}
	return &LogFileOptions{Name: opts.Name, Filename: opts.LogFile, Truncate: truncate}
}

// ClearLogs removes the process's ClearFiles and reports how many
// existed. Files that are already gone are skipped.
func (opts *Process) ClearLogs() (int, error) {
	catcher := &erc.Collector{}
	removed := 0
	for _, path := range opts.ClearFiles {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			catcher.Add(fmt.Errorf("problem clearing '%s': %w", path, err))
		}
	}
	return removed, catcher.Resolve()
}

func (opts *LogFileOptions) Validate() error {
	catcher := &erc.Collector{}
	erc.When(catcher, opts.Filename == "", "must specify a filename")
	erc.When(catcher, opts.Name == "", "must specify a logger name")
	return catcher.Resolve()
}

// Configure opens the log file as a plain grip sender. It reports whether
// an existing file was removed first.
func (opts *LogFileOptions) Configure() (send.Sender, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid options: %w", err)
	}

	cleared := false
	if opts.Truncate {
		err := os.Remove(opts.Filename)
		switch {
		case err == nil:
			cleared = true
		case !errors.Is(err, fs.ErrNotExist):
			return nil, false, fmt.Errorf("problem clearing '%s': %w", opts.Filename, err)
		}
	}

	sender, err := send.MakePlainFile(opts.Filename)
	if err != nil {
		return nil, cleared, fmt.Errorf("problem creating file logger: %w", err)
	}
	sender.SetFormatter(send.MakePlainFormatter())
	sender.SetName(opts.Name)
	if err := sender.SetLevel(send.LevelInfo{Default: level.Info, Threshold: level.Info}); err != nil {
		_ = sender.Close()
		return nil, cleared, fmt.Errorf("problem configuring file logger: %w", err)
	}

	return sender, cleared, nil
}
