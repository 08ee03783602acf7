//go:build !linux

package devserve

type noopProcessTracker struct {
	*processTrackerBase
}

// NewProcessTracker returns a tracker that does nothing on platforms
// without a grouping primitive; the final port reclaim is the only safety
// net there.
func NewProcessTracker(name string) (ProcessTracker, error) {
	return &noopProcessTracker{processTrackerBase: &processTrackerBase{Name: name}}, nil
}

func (*noopProcessTracker) Add(ProcessInfo) error { return nil }
func (*noopProcessTracker) Cleanup() error        { return nil }
