package netmon

// Status is the connectivity signal delivered to subscribers.
type Status int

const (
	// StatusUnavailable means no connection has been established.
	StatusUnavailable Status = iota
	// StatusAvailable means the server is reachable.
	StatusAvailable
	// StatusLosing means the last probe failed after a healthy period.
	StatusLosing
	// StatusLost means probes have failed repeatedly after a healthy period.
	StatusLost
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusUnavailable:
		return "unavailable"
	case StatusAvailable:
		return "available"
	case StatusLosing:
		return "losing"
	case StatusLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Online reports whether remote calls are worth attempting.
func (s Status) Online() bool {
	return s == StatusAvailable
}
