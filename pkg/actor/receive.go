package actor

import (
	"errors"
	"time"
)

// ErrActorTerminated indicates an operation failed because the actor has
// already exited, mirroring the teacher's sentinel of the same name.
var ErrActorTerminated = errors.New("actor terminated")

type receiveOutcome int

const (
	outcomeMatched receiveOutcome = iota
	outcomeNoMessage
	outcomeExited
	outcomeTimeout
)

// matchStash replays stashed messages in FIFO order against handler,
// per spec §4.3 step 1: every receive retries messages that went
// unmatched against an earlier handler.
func (a *coreActor) matchStash(handler Handler) bool {
	for i, m := range a.stash {
		if action, ok := handler.Match(m); ok {
			a.stash = append(a.stash[:i:i], a.stash[i+1:]...)
			action(m)
			return true
		}
	}
	return false
}

// receiveOnce drives one "receive a matching message" operation (spec
// §4.3). In non-blocking mode it is the event-based actor's per-step
// fetch, used by the scheduler's resume loop; it never blocks and
// reports outcomeNoMessage when the mailbox is currently empty so the
// caller can hand control back to try_block. In blocking mode it is the
// thread-backed actor's synchronous Receive call.
func (a *coreActor) receiveOnce(handler Handler, nonBlocking bool, hasDeadline bool, deadline time.Time) receiveOutcome {
	if a.matchStash(handler) {
		return outcomeMatched
	}

	for {
		var msg Message
		if nonBlocking {
			var ok bool
			msg, ok = a.mbox.tryFetch()
			if !ok {
				return outcomeNoMessage
			}
		} else {
			msg = a.mbox.awaitMessage(deadline, hasDeadline)
			if msg == nil {
				return outcomeExited
			}
		}

		if isTimeoutToken(msg) {
			return outcomeTimeout
		}

		if reason, isDown := asLinkedDown(msg); isDown && !a.trapExit {
			a.terminate(LinkedDownExit(reason))
			return outcomeExited
		}

		if action, ok := handler.Match(msg); ok {
			action(msg)
			return outcomeMatched
		}

		a.stash = append(a.stash, msg)
	}
}

// runReceive is the shared driver behind Context.Receive and
// ReceiveWithTimeout: loop receiveOnce until it matches, the actor
// exits, or a timeout clause fires.
func (a *coreActor) runReceive(handler Handler, hasDeadline bool, deadline time.Time, onTimeout func()) error {
	for {
		switch a.receiveOnce(handler, false, hasDeadline, deadline) {
		case outcomeMatched:
			return nil
		case outcomeExited:
			return ErrActorTerminated
		case outcomeTimeout:
			if onTimeout != nil {
				onTimeout()
				return nil
			}
			// spec §7: an elapsed timeout with no declared clause
			// propagates as actor-terminal Unhandled.
			a.terminate(UnhandledExit)
			return ErrActorTerminated
		}
	}
}

// timeoutOf extracts the deadline and timeout action a Behavior
// declared via After, if handler is one.
func timeoutOf(handler Handler) (hasDeadline bool, deadline time.Time, onTimeout func()) {
	b, ok := handler.(*Behavior)
	if !ok || !b.hasTimeout {
		return false, time.Time{}, nil
	}
	return true, time.Now().Add(b.timeout), b.timeoutDo
}
