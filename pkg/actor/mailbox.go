package actor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lguibr/actorcore/pkg/queue"
)

// schedulingState is the event-based actor's scheduling status (spec
// §3). Thread-backed actors never use it; they block directly on cond.
type schedulingState int32

const (
	stateReady schedulingState = iota
	stateAboutToBlock
	stateBlocked
	statePending
	stateDone
)

// blockResult is returned by TryBlock, the double-check protocol that
// closes the race between a producer's enqueue and the consumer's
// decision to sleep (spec §4.2). Two distinct situations both find the
// AboutToBlock->Blocked CAS unusable, and they must not be conflated:
// blockResultRetry is the self-detected case (this worker's own
// emptiness check saw a message, no other party involved — safe to loop
// and try again on this same worker); blockResultStolen is the raced
// case (a concurrent enqueue already won the AboutToBlock->Ready CAS and
// took ownership of resuming this actor, via onWake or the inline
// dispatch fast path — this worker must stop touching the actor, exactly
// as if it had blocked, or two goroutines end up inside resume/receiveOnce
// for the same actor at once, violating spec §3 invariant 1).
type blockResult int

const (
	blockResultBlocked blockResult = iota
	blockResultRetry
	blockResultStolen
)

// mailbox wraps the intrusive MPSC queue with the reader/producer
// handoff every actor kind needs: TryFetch for polling, AwaitMessage for
// thread-backed actors, and TryBlock for event-based actors handing
// themselves back to the scheduler. It is exclusively owned by its
// actor; only the owning actor's goroutine ever calls the Receive side.
type mailbox struct {
	q *queue.MPSC[Message]

	state atomic.Int32 // schedulingState, event-based actors only

	mu     sync.Mutex
	cond   *sync.Cond
	closed bool

	onWake func() // hands the actor back to the scheduler; nil for thread-backed actors
}

func newMailbox(onWake func()) *mailbox {
	m := &mailbox{q: queue.New[Message](), onWake: onWake}
	m.cond = sync.NewCond(&m.mu)
	m.state.Store(int32(stateReady))
	return m
}

// enqueue implements spec §4.2's producer algorithm: push the message,
// and if the push found the queue empty, either signal a blocked
// thread-backed actor's condvar or CAS an event-based actor back to
// Ready and hand it to the scheduler.
func (m *mailbox) enqueue(msg Message) {
	wasEmpty := m.q.PushReturningPreviousTail(msg)

	if m.onWake == nil {
		// Thread-backed: signal only when this push found the queue
		// empty; a waiter only parks after seeing it empty, and it
		// re-checks the queue itself, so a spurious wake is harmless.
		if wasEmpty {
			m.mu.Lock()
			m.cond.Signal()
			m.mu.Unlock()
		}
		return
	}

	if !wasEmpty {
		return
	}
	if m.transitionToReady() {
		m.onWake()
	}
}

// transitionToReady CASes Blocked->Ready or AboutToBlock->Ready,
// reporting whether this call performed the transition (and therefore
// owns the responsibility to hand the actor to the scheduler).
func (m *mailbox) transitionToReady() bool {
	for {
		cur := schedulingState(m.state.Load())
		if cur != stateBlocked && cur != stateAboutToBlock {
			return false
		}
		if m.state.CompareAndSwap(int32(cur), int32(stateReady)) {
			return true
		}
	}
}

// enqueueInline is like enqueue but, instead of invoking onWake itself,
// reports whether this push performed the Blocked/AboutToBlock->Ready
// wake transition for an event-based actor. It underlies the scheduler's
// chained_enqueue-style fast path (spec §9), letting a caller already
// running inside the scheduler resume the woken actor directly rather
// than round-tripping through the run-queue and condvar broadcast.
func (m *mailbox) enqueueInline(msg Message) (woke bool) {
	wasEmpty := m.q.PushReturningPreviousTail(msg)
	if m.onWake == nil || !wasEmpty {
		return false
	}
	return m.transitionToReady()
}

// tryFetch is the non-blocking dequeue entry point.
func (m *mailbox) tryFetch() (Message, bool) {
	return m.q.TryPop()
}

// tryBlock implements the double-check protocol: Ready -> AboutToBlock,
// re-examine the queue, and either commit to Blocked or revert to Ready
// and ask the caller to retry (spec §4.2, testable property 5). The two
// ways the commit can fail are reported distinctly (blockResultRetry vs.
// blockResultStolen) so the caller knows whether it still owns resuming
// this actor.
func (m *mailbox) tryBlock() blockResult {
	m.state.Store(int32(stateAboutToBlock))

	if !m.q.Empty() {
		m.state.Store(int32(stateReady))
		return blockResultRetry
	}

	if m.state.CompareAndSwap(int32(stateAboutToBlock), int32(stateBlocked)) {
		return blockResultBlocked
	}
	// A concurrent enqueue's transitionToReady already won the CAS and
	// has taken (or is about to take) ownership of resuming this actor,
	// via onWake or the inline dispatch fast path. This caller must not
	// also resume it.
	return blockResultStolen
}

// awaitMessage blocks a thread-backed actor until a message arrives or
// deadline elapses (if set). It returns the synthetic timeout message
// when the deadline fires first.
func (m *mailbox) awaitMessage(deadline time.Time, hasDeadline bool) Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		if msg, ok := m.q.TryPop(); ok {
			return msg
		}
		if m.closed {
			return nil
		}
		if !hasDeadline {
			m.cond.Wait()
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return newTimeoutToken()
		}

		woke := make(chan struct{})
		timer := time.AfterFunc(remaining, func() {
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
			close(woke)
		})
		m.cond.Wait()
		timer.Stop()
		select {
		case <-woke:
		default:
		}
	}
}

// close marks the mailbox closed; any thread-backed waiter still parked
// on the condvar wakes and observes closed on its next loop iteration.
func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()
}

// drain returns every remaining buffered message after close, for
// routing to a dead-letter sink during actor shutdown.
func (m *mailbox) drain() []Message {
	var out []Message
	for {
		msg, ok := m.q.TryPop()
		if !ok {
			break
		}
		out = append(out, msg)
	}
	return out
}

func (m *mailbox) empty() bool {
	return m.q.Empty()
}
