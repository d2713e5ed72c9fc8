package app

type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseAwaitingSecret Phase = "awaiting_secret"
	PhaseReady          Phase = "ready"
	PhaseTokenizing     Phase = "tokenizing"
	PhaseConfirming     Phase = "confirming"
	PhaseSucceeded      Phase = "succeeded"
	PhaseFailed         Phase = "failed"
	PhaseClosed         Phase = "closed"
)

var transitions = map[Phase][]Phase{
	PhaseIdle:           {PhaseAwaitingSecret, PhaseClosed},
	PhaseAwaitingSecret: {PhaseAwaitingSecret, PhaseReady, PhaseIdle, PhaseClosed},
	PhaseReady:          {PhaseAwaitingSecret, PhaseTokenizing, PhaseIdle, PhaseClosed},
	PhaseTokenizing:     {PhaseConfirming, PhaseFailed, PhaseClosed},
	PhaseConfirming:     {PhaseSucceeded, PhaseFailed, PhaseClosed},
	PhaseFailed:         {PhaseReady, PhaseAwaitingSecret, PhaseIdle, PhaseClosed},
	PhaseSucceeded:      {},
	PhaseClosed:         {},
}

// CanTransitionTo reports whether from -> to is a legal checkout move.
func CanTransitionTo(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (p Phase) IsTerminal() bool {
	return p == PhaseSucceeded || p == PhaseClosed
}

// InFlight reports whether a submission is being processed.
func (p Phase) InFlight() bool {
	return p == PhaseTokenizing || p == PhaseConfirming
}

func (p Phase) String() string {
	return string(p)
}
