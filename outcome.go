package anchor

// Outcome classifies a recovery attempt.
type Outcome int

const (
	// OutcomeUnrecovered means nothing valid was found and the stale node is kept.
	OutcomeUnrecovered Outcome = iota
	// OutcomeAncestor means an ancestor of the original position was returned.
	OutcomeAncestor
	// OutcomeExact means a node at the original position was re-resolved.
	OutcomeExact
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnrecovered:
		return "unrecovered"
	case OutcomeAncestor:
		return "ancestor"
	case OutcomeExact:
		return "exact"
	default:
		return "unknown"
	}
}

// Event describes one recovery performed by a Strategy.
type Event struct {
	Name          string
	Kind          Kind
	Outcome       Outcome
	AncestorIndex int
	Descended     int
	// Depth is the length of the captured ancestry.
	Depth int
}

// Observer is notified after every recovery attempt. Observers run on the
// goroutine reading the strategy and must not call back into it.
type Observer interface {
	ObserveRecovery(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// ObserveRecovery calls f(e).
func (f ObserverFunc) ObserveRecovery(e Event) { f(e) }

// Observers fans events out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	var list []Observer
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return ObserverFunc(func(e Event) {
		for _, o := range list {
			o.ObserveRecovery(e)
		}
	})
}
