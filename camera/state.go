package camera

// State represents the current lifecycle state of a camera instance.
// Transition ownership belongs solely to the instance; no external
// mutation.
type State int

const (
	// StateUninitialized indicates the instance was constructed but Init
	// has not resolved its parameters yet.
	StateUninitialized State = iota
	// StateInitialized indicates parameters are resolved but no backend
	// resources are held.
	StateInitialized
	// StateOpen indicates backend resources are allocated and acquisition
	// is running.
	StateOpen
	// StateClosed indicates backend resources were released; the instance
	// can be re-opened.
	StateClosed
)

// String returns a string representation of the lifecycle state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
