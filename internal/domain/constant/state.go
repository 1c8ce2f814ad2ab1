package constant

// EngineState defines the lifecycle states of a reminder synchronization session.
type EngineState int

const (
	// StateUninitialized represents a session that has not loaded the remote set yet.
	StateUninitialized EngineState = iota
	// StateLoading represents a session waiting for the remote list to return.
	StateLoading
	// StateReady represents a session whose working set can be edited and committed.
	StateReady
	// StateCommitting represents a session pushing its working set to the store and scheduler.
	StateCommitting
	// StateCommitFailed is entered when the remote replace fails; the session returns to ready.
	StateCommitFailed
)

func (s EngineState) Int() int {
	return int(s)
}

func (s EngineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateCommitting:
		return "committing"
	case StateCommitFailed:
		return "commit_failed"
	default:
		return "unknown"
	}
}
