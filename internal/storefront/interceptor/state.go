package interceptor

// State is a worker's lifecycle phase.
type State int32

const (
	StateInstalling State = iota
	StateWaiting
	StateActive
	// StateRedundant workers failed to install or were replaced.
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateWaiting:
		return "waiting"
	case StateActive:
		return "active"
	case StateRedundant:
		return "redundant"
	default:
		return "unknown"
	}
}
