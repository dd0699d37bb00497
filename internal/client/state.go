package client

// RequestState is the lifecycle of one prediction request as seen by a caller.
type RequestState int

const (
	StateIdle RequestState = iota
	StateLoading
	StateSuccess
	StateFailed
)

func (s RequestState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition happens without a new Run.
func (s RequestState) Terminal() bool {
	return s == StateSuccess || s == StateFailed
}
