package devserve

// State is the lifecycle position of a managed process.
type State int

const (
	// Pending processes have been configured but not started.
	Pending State = iota
	// Starting means the port is being reclaimed or the child is being
	// spawned.
	Starting
	// Running means the child was spawned and has not been observed to
	// exit.
	Running
	// Stopping means a shutdown is in progress.
	Stopping
	// Stopped is terminal, either because Stop completed or because the
	// child exited on its own.
	Stopped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// HasHandle reports whether a process in this state holds an OS process
// handle. The handle is attached when the process enters Starting and is
// released when it reaches Stopped.
func (s State) HasHandle() bool { return s.Between(Pending, Stopped) }

func (s State) Before(other State) bool { return s < other }

func (s State) After(other State) bool { return s > other }

func (s State) Between(lower State, upper State) bool { return lower < s && s < upper }

// SupervisorState tracks the supervisor as a whole.
type SupervisorState int

const (
	Idle SupervisorState = iota
	Launching
	Supervising
	ShuttingDown
)

func (s SupervisorState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Launching:
		return "starting"
	case Supervising:
		return "running"
	case ShuttingDown:
		return "shutting-down"
	default:
		return "unknown"
	}
}
