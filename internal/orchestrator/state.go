package orchestrator

// State is a step of one request invocation.
type State int

// States. Success and Failed are terminal.
const (
	Idle State = iota
	Requesting
	RecoveringViaInjection
	RecoveringViaReload
	Retrying
	Success
	Failed
)

var stateNames = map[State]string{
	Idle:                   "idle",
	Requesting:             "requesting",
	RecoveringViaInjection: "recovering-via-injection",
	RecoveringViaReload:    "recovering-via-reload",
	Retrying:               "retrying",
	Success:                "success",
	Failed:                 "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Success || s == Failed
}

// Event is an outcome observed while in a state.
type Event int

// Events.
const (
	Start Event = iota
	Succeeded
	ReportedFailure
	NoReceiver
	TransportFailed
	Recovered
	RecoveryFailed
)

var eventNames = map[Event]string{
	Start:           "start",
	Succeeded:       "succeeded",
	ReportedFailure: "reported-failure",
	NoReceiver:      "no-receiver",
	TransportFailed: "transport-failed",
	Recovered:       "recovered",
	RecoveryFailed:  "recovery-failed",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}

	return "unknown"
}

// Transition returns the state following s on event e. canInject selects the
// recovery path for a missing receiver. Any pair not listed goes to Failed, so a
// missing receiver after a retry never starts a second recovery.
func Transition(s State, e Event, canInject bool) State {
	switch s {
	case Idle:
		if e == Start {
			return Requesting
		}
	case Requesting:
		switch e {
		case Succeeded:
			return Success
		case NoReceiver:
			if canInject {
				return RecoveringViaInjection
			}

			return RecoveringViaReload
		}
	case RecoveringViaInjection, RecoveringViaReload:
		if e == Recovered {
			return Retrying
		}
	case Retrying:
		if e == Succeeded {
			return Success
		}
	case Success:
		return Success
	}

	return Failed
}
