package devserve

// ProcessTracker groups the supervisor's children so that anything they
// left behind can be cleaned up after shutdown. Implementation details are
// platform-specific.
type ProcessTracker interface {
	// Add begins tracking a process identified by its ProcessInfo.
	Add(ProcessInfo) error
	// Cleanup terminates whatever is left in the group.
	Cleanup() error
}

type processTrackerBase struct {
	Name string
}
