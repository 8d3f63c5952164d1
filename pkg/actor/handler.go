package actor

import "time"

// Action is the side-effecting function a matched Pattern runs. It
// receives the message that matched so it can read the payload.
type Action func(msg Message)

// Handler is the external pattern-matcher contract the receive
// engine consumes (spec §6): given a Message, either produce an Action
// to run or decline. Splice composes two handlers, trying the receiver
// first. Handlers are values: clonable, immutable once built.
type Handler interface {
	// Match reports whether msg is handled and, if so, the action to run.
	Match(msg Message) (Action, bool)

	// Splice returns a handler that first tries the receiver, falling
	// back to other on no match.
	Splice(other Handler) Handler
}

// Pattern pairs a predicate over a message's payload with the action to
// run when it matches. Predicate receives the raw payload slice so it
// can type-switch on the first element, the convention every Behavior
// in this module's tests follows.
type Pattern struct {
	Predicate func(payload []any) bool
	Do        func(msg Message)
}

// Behavior is the concrete Handler used throughout this module: an
// ordered list of patterns tried in turn, with an optional `after`
// clause (spec §4.3) consulted by the receive engine when its deadline
// elapses and no pattern matched in time.
type Behavior struct {
	patterns   []Pattern
	hasTimeout bool
	timeout    time.Duration
	timeoutDo  func()
}

// NewBehavior builds a Behavior trying patterns in the given order.
func NewBehavior(patterns ...Pattern) *Behavior {
	return &Behavior{patterns: patterns}
}

// On is a convenience constructor for a Pattern that runs do on any
// message whose payload satisfies predicate.
func On(predicate func(payload []any) bool, do func(msg Message)) Pattern {
	return Pattern{Predicate: predicate, Do: do}
}

// After attaches a timeout clause, returning the receiver for chaining.
// The receive engine runs do if no pattern matches d after the receive
// begins (spec §4.3's "after(duration) -> action" clause). Only the
// blocking Context.Receive honours it; event-based actors, pool-scheduled
// or detached, never fire it.
func (b *Behavior) After(d time.Duration, do func()) *Behavior {
	b.hasTimeout = true
	b.timeout = d
	b.timeoutDo = do
	return b
}

func (b *Behavior) Match(msg Message) (Action, bool) {
	payload := msg.Payload()
	for _, p := range b.patterns {
		if p.Predicate(payload) {
			return p.Do, true
		}
	}
	return nil, false
}

func (b *Behavior) Splice(other Handler) Handler {
	return splicedHandler{first: b, second: other}
}

type splicedHandler struct {
	first  Handler
	second Handler
}

func (s splicedHandler) Match(msg Message) (Action, bool) {
	if action, ok := s.first.Match(msg); ok {
		return action, ok
	}
	return s.second.Match(msg)
}

func (s splicedHandler) Splice(other Handler) Handler {
	return splicedHandler{first: s, second: other}
}
