package api

import "strconv"

// State is the lifecycle state of the primary server. The declaration order
// is part of the status-channel wire format: status replies carry the state
// as its integer value, so new states may only be appended.
type State int32

const (
	// StateInitializing means the server is constructing its generator and
	// has not produced an event yet.
	StateInitializing State = iota

	// StateWaitingEvent means event generation is in flight.
	StateWaitingEvent

	// StateReadyToServe means a fully generated event is available and work
	// requests are being answered with chunks.
	StateReadyToServe

	// StateIdle means the event budget is exhausted; the server either exits
	// or, when running as a service, awaits a control command.
	StateIdle

	// StateStopped is terminal; the serving loop has ceased.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "Initializing"
	case StateWaitingEvent:
		return "WaitingEvent"
	case StateReadyToServe:
		return "ReadyToServe"
	case StateIdle:
		return "Idle"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// MarshalStatusReply encodes the state for the status channel.
func (s State) MarshalStatusReply() []byte {
	return []byte(strconv.Itoa(int(s)))
}

// ParseStatusReply decodes a status-channel reply. The second return value is
// false for payloads that are not a known state integer.
func ParseStatusReply(payload []byte) (State, bool) {
	v, err := strconv.Atoi(string(payload))
	if err != nil {
		return StateStopped, false
	}
	s := State(v)
	if s < StateInitializing || s > StateStopped {
		return StateStopped, false
	}
	return s, true
}
