package session

// State is the explicit authentication state of the manager. The previous
// implementation tracked this implicitly through scattered booleans; the
// transition table below makes illegal transitions structurally impossible.
type State int

const (
	StateUnauthenticated State = iota
	StateValidating
	StateAuthenticated
	StateNeedsRenewal
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateAuthenticated:
		return "authenticated"
	case StateNeedsRenewal:
		return "needs_renewal"
	default:
		return "unauthenticated"
	}
}

type stateEvent int

const (
	eventValidationStarted stateEvent = iota
	eventValidationPassed
	eventValidationFailed
	eventValidationInconclusive
	eventRenewalRequired
	eventRenewalResolved
	eventLoginConfirmed
	eventSessionCleared
)

// transitions is the legal transition table, keyed [from][event]. Renewal is
// only reachable from Validating: a session cannot need renewal without a
// validated server response saying so.
var transitions = map[State]map[stateEvent]State{
	StateUnauthenticated: {
		eventLoginConfirmed:    StateAuthenticated,
		eventValidationStarted: StateValidating,
		eventSessionCleared:    StateUnauthenticated,
	},
	StateValidating: {
		eventValidationPassed: StateAuthenticated,
		eventValidationFailed: StateUnauthenticated,
		eventRenewalRequired:  StateNeedsRenewal,
		eventLoginConfirmed:   StateAuthenticated,
		eventSessionCleared:   StateUnauthenticated,
	},
	StateAuthenticated: {
		eventValidationStarted: StateValidating,
		eventLoginConfirmed:    StateAuthenticated,
		eventSessionCleared:    StateUnauthenticated,
	},
	StateNeedsRenewal: {
		eventValidationStarted: StateValidating,
		eventRenewalResolved:   StateAuthenticated,
		eventLoginConfirmed:    StateAuthenticated,
		eventSessionCleared:    StateUnauthenticated,
	},
}

// authState tracks the current state plus the state a validation started
// from, so an inconclusive round trip can restore it.
type authState struct {
	current State
	prev    State
}

func (s *authState) fire(ev stateEvent) error {
	if ev == eventValidationInconclusive {
		// Transient outcome: the validation neither confirmed nor rejected
		// anything, so the pre-validation state is restored untouched.
		if s.current != StateValidating {
			return ErrInvalidTransition
		}
		s.current = s.prev
		return nil
	}

	next, ok := transitions[s.current][ev]
	if !ok {
		return ErrInvalidTransition
	}

	if ev == eventValidationStarted {
		s.prev = s.current
	}
	s.current = next
	return nil
}
