package model

import "time"

// SecurityEvent is the payload pushed to the dashboard feed while the
// demonstration runs.
type SecurityEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     Severity  `json:"level"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
}

// Outcome classifies the result of a probe against the hub. A connection
// attempt that fails because the network was down is not evidence of
// enforcement, so the classification is explicit rather than "any error
// means blocked".
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeAuthRejected
	OutcomeUnreachable
	OutcomeMalformed
	OutcomeUnknown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeAuthRejected:
		return "authentication-rejected"
	case OutcomeUnreachable:
		return "network-unreachable"
	case OutcomeMalformed:
		return "malformed-request"
	}
	return "unknown"
}

// Blocked reports whether the probe was denied by the hub itself, as
// opposed to failing for an unrelated reason.
func (o Outcome) Blocked() bool {
	return o == OutcomeAuthRejected || o == OutcomeMalformed
}
