package actor

import "github.com/google/uuid"

// BaseMessage is embedded by message types to satisfy Message's sealed,
// unexported marker method without each caller having to reimplement it.
type BaseMessage struct{}

func (BaseMessage) messageMarker() {}

// Message is the sealed external collaborator contract the receive
// engine consumes (spec §6): an opaque, cheaply clonable payload with an
// optional sender and correlation id. The core never interprets the
// payload itself; that is the Handler's job.
type Message interface {
	// messageMarker seals the interface to types that embed BaseMessage.
	messageMarker()

	// Payload returns the ordered, heterogeneous contents of the message.
	Payload() []any

	// Sender returns the id of the actor that sent this message, if any.
	Sender() (ActorID, bool)

	// CorrelationID returns the tag pairing this message with an earlier
	// request, if one was set by SendWithCorrelation/Ask.
	CorrelationID() (uuid.UUID, bool)
}

// envelope is the concrete Message implementation used by System.Send
// and Ask. User code may supply its own Message implementation instead;
// the core only ever consumes the interface.
type envelope struct {
	BaseMessage

	payload []any
	sender  ActorID
	hasFrom bool
	corrID  uuid.UUID
	hasCorr bool
}

// NewMessage builds a Message carrying payload with no sender or
// correlation id set.
func NewMessage(payload ...any) Message {
	return &envelope{payload: payload}
}

func (e *envelope) Payload() []any { return e.payload }

func (e *envelope) Sender() (ActorID, bool) { return e.sender, e.hasFrom }

func (e *envelope) CorrelationID() (uuid.UUID, bool) { return e.corrID, e.hasCorr }

func (e *envelope) withSender(id ActorID) *envelope {
	n := *e
	n.sender, n.hasFrom = id, true
	return &n
}

func (e *envelope) withCorrelation(id uuid.UUID) *envelope {
	n := *e
	n.corrID, n.hasCorr = id, true
	return &n
}

// systemKind tags the small set of built-in control messages the
// receive engine dispatches through the exit-trap path rather than the
// user handler, unless the target is trapping exits.
type systemKind int

const (
	sysNone systemKind = iota
	sysLinkedDown
	sysTimeout
)

// LinkedDownNotice is the user-visible payload of a linked-peer exit
// notification, delivered to a trapping actor's handler as an ordinary
// message (spec §4.4 exit trapping).
type LinkedDownNotice struct {
	From   ActorID
	Reason ExitReason
}

// TimeoutNotice is the user-visible payload of the synthetic message a
// timed receive delivers when its deadline elapses with no match.
type TimeoutNotice struct{}

// systemMessage carries a linked-peer exit notification or a synthetic
// timeout token through the ordinary mailbox path.
type systemMessage struct {
	BaseMessage

	kind     systemKind
	from     ActorID
	hasFrom  bool
	reason   ExitReason
}

func (s *systemMessage) Payload() []any {
	switch s.kind {
	case sysLinkedDown:
		return []any{LinkedDownNotice{From: s.from, Reason: s.reason}}
	case sysTimeout:
		return []any{TimeoutNotice{}}
	default:
		return nil
	}
}
func (s *systemMessage) Sender() (ActorID, bool)          { return s.from, s.hasFrom }
func (s *systemMessage) CorrelationID() (uuid.UUID, bool) { return uuid.Nil, false }

func newLinkedDown(from ActorID, reason ExitReason) Message {
	return &systemMessage{kind: sysLinkedDown, from: from, hasFrom: true, reason: reason}
}

func newTimeoutToken() Message {
	return &systemMessage{kind: sysTimeout}
}

// asLinkedDown reports whether msg is a linked-down system message and,
// if so, returns the peer's exit reason.
func asLinkedDown(msg Message) (ExitReason, bool) {
	sm, ok := msg.(*systemMessage)
	if !ok || sm.kind != sysLinkedDown {
		return ExitReason{}, false
	}
	return sm.reason, true
}

// isTimeoutToken reports whether msg is the synthetic timeout message
// the mailbox delivers when a timed receive's deadline elapses.
func isTimeoutToken(msg Message) bool {
	sm, ok := msg.(*systemMessage)
	return ok && sm.kind == sysTimeout
}
