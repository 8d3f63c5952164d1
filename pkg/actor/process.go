package actor

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// actorKind distinguishes the two actor flavors spec §9 asks to model as
// a tagged variant rather than an inheritance hierarchy.
type actorKind int

const (
	kindEventBased actorKind = iota
	kindThreadBacked
)

// lifecycleState mirrors spec §4.4's Initial -> Running -> Exiting ->
// Done states. Exiting and Done collapse to a single observation (the
// exitState either holds a reason or it doesn't); the lifecycle field is
// written at spawn and at exit, and nothing else reads it.
type lifecycleState int32

const (
	lifecycleInitial lifecycleState = iota
	lifecycleRunning
	lifecycleDone
)

// coreActor is the state shared by both actor kinds: identity, mailbox,
// links/attachments, exit reason, and the stash the receive engine
// replays. Event-based actors additionally carry a current_behavior the
// scheduler evaluates; thread-backed actors instead run a user function
// that calls the blocking receive API directly (spec §9's resolution of
// "no stackful coroutines").
type coreActor struct {
	id   ActorID
	sys  *System
	mbox *mailbox
	links *linkState
	exit exitState

	kind     actorKind
	trapExit bool

	stash []Message

	// current_behavior: only meaningful for event-based actors; the
	// scheduler's resume() evaluates it against the next message with
	// no blocking call involved.
	behavior Handler

	lifecycle lifecycleState

	done chan struct{}
}

// newCoreActor builds a coreActor. Pool-scheduled event-based actors pass
// their scheduler: the mailbox's wake hook needs to reschedule this actor
// once it exists, which the hook's closure resolves by capturing c after
// construction rather than requiring the caller to do so. Thread-backed
// and detached event-based actors pass sched == nil; their mailbox
// signals a condvar instead.
func newCoreActor(id ActorID, sys *System, kind actorKind, trapExit bool, sched *Scheduler) *coreActor {
	c := &coreActor{
		id:        id,
		sys:       sys,
		links:     newLinkState(),
		kind:      kind,
		trapExit:  trapExit,
		lifecycle: lifecycleInitial,
		done:      make(chan struct{}),
	}
	if sched != nil {
		c.mbox = newMailbox(func() { sched.schedule(c) })
	} else {
		c.mbox = newMailbox(nil)
	}
	return c
}

// terminate runs the idempotent exit path (spec §4.4): CAS the exit
// reason, notify every attachment and linked peer exactly once, clear
// the registry's ref for this id, and decrement the running count.
func (a *coreActor) terminate(reason ExitReason) {
	if !a.exit.trySet(reason) {
		return
	}
	a.lifecycle = lifecycleDone
	a.mbox.close()

	for _, cb := range a.links.drainAttachments() {
		cb(reason)
	}
	for _, peerID := range a.links.snapshotLinks() {
		if ref, _, found := a.sys.registry.get(peerID); found && ref != nil {
			ref.deliverSystem(newLinkedDown(a.id, reason))
		}
	}

	a.sys.registry.markExited(a.id, reason)
	close(a.done)

	log.DebugS(context.Background(), "actor terminated",
		"actor_id", a.id, "reason", reason.String())
}

// quit is how an actor running inside one of its own message actions
// terminates itself with a chosen reason (spec §4.4).
func (a *coreActor) quit(reason ExitReason) {
	a.terminate(reason)
}

// deliverSystem is the path a terminating peer uses to post a
// linked-down notification; it goes through the ordinary mailbox
// enqueue so ordering and wake-up semantics match user messages.
func (a *coreActor) deliverSystem(msg Message) {
	if _, exited := a.exit.load(); exited {
		return
	}
	a.mbox.enqueue(msg)
}

// link establishes a symmetric link. If other has already exited, a
// linked-down notification is synthesized immediately (spec §4.5).
func (a *coreActor) link(other ActorID) {
	a.links.addLink(other)

	ref, reason, found := a.sys.registry.get(other)
	if found && ref == nil {
		a.deliverSystem(newLinkedDown(other, reason))
		return
	}
	if found && ref != nil {
		ref.core.links.addLink(a.id)
	}
}

func (a *coreActor) unlink(other ActorID) {
	a.links.removeLink(other)
	if ref, _, found := a.sys.registry.get(other); found && ref != nil {
		ref.core.links.removeLink(a.id)
	}
}

func (a *coreActor) attach(cb func(ExitReason)) attachmentToken {
	if reason, exited := a.exit.load(); exited {
		cb(reason)
		return 0
	}
	return a.links.attach(cb)
}

func (a *coreActor) detach(tok attachmentToken) {
	a.links.detach(tok)
}

// Context is what a thread-backed actor body (or a handler Action run
// on behalf of an event-based actor) uses to call back into the
// runtime: self identity, links/attachments, quitting, and — for
// thread-backed actors only — the blocking receive family from spec §6.
type Context struct {
	core *coreActor
}

// Self returns the id of the actor this Context belongs to.
func (c *Context) Self() ActorID { return c.core.id }

func (c *Context) Link(other ActorID)   { c.core.link(other) }
func (c *Context) Unlink(other ActorID) { c.core.unlink(other) }

func (c *Context) Attach(cb func(ExitReason)) attachmentToken { return c.core.attach(cb) }
func (c *Context) Detach(tok attachmentToken)                 { c.core.detach(tok) }

// Quit terminates the current actor with reason. Valid from inside a
// thread-backed actor's body; an event-based actor's Action calls it to
// stop the scheduler from resuming it again.
func (c *Context) Quit(reason ExitReason) { c.core.quit(reason) }

// TrapExit toggles whether linked-down notifications are delivered to
// this actor's handler as ordinary messages instead of auto-terminating
// it (spec §4.4).
func (c *Context) TrapExit(trap bool) { c.core.trapExit = trap }

// Receive performs one blocking receive using handler's own After
// clause, if it declared one, as the deadline. Thread-backed actors
// only: an event-based actor's current_behavior is driven by resume(),
// never by a direct blocking call.
func (c *Context) Receive(handler Handler) error {
	hasDeadline, deadline, onTimeout := timeoutOf(handler)
	return c.core.runReceive(handler, hasDeadline, deadline, onTimeout)
}

// ReceiveWithTimeout performs one blocking receive with an explicit
// deadline and timeout action, overriding anything handler itself
// declared via After.
func (c *Context) ReceiveWithTimeout(handler Handler, d time.Duration, onTimeout func()) error {
	return c.core.runReceive(handler, true, time.Now().Add(d), onTimeout)
}

// ReceiveWhile loops Receive(handler) while pred returns true (spec
// §6's receive_while), mirroring the original's receive_while_helper.
func (c *Context) ReceiveWhile(pred func() bool, handler Handler) error {
	for pred() {
		if err := c.Receive(handler); err != nil {
			return err
		}
	}
	return nil
}

// DoReceiveBuilder supports do_receive(handler).until(pred) from spec §6.
type DoReceiveBuilder struct {
	ctx     *Context
	handler Handler
}

// DoReceive begins a do-receive-until loop over handler.
func (c *Context) DoReceive(handler Handler) *DoReceiveBuilder {
	return &DoReceiveBuilder{ctx: c, handler: handler}
}

// Until runs Receive(handler) repeatedly until pred returns true or the
// actor exits, mirroring the original's do_receive_helper.until.
func (d *DoReceiveBuilder) Until(pred func() bool) error {
	for {
		if err := d.ctx.Receive(d.handler); err != nil {
			return err
		}
		if pred() {
			return nil
		}
	}
}

// Tell sends msg to target from inside this actor's own action, tagging
// it with Self() as sender. When target is a pool-scheduled event-based
// actor and this send is the one that wakes it, Tell resumes target
// inline on the calling worker goroutine instead of pushing it back onto
// the run-queue (spec §9's chained_enqueue-style fast path). Returns
// false if target has already exited.
func (c *Context) Tell(target *Ref, msg Message) bool {
	if _, exited := target.core.exit.load(); exited {
		return false
	}
	if e, ok := msg.(*envelope); ok {
		msg = e.withSender(c.core.id)
	}
	if c.core.sys != nil && c.core.sys.scheduler != nil {
		c.core.sys.scheduler.sendAndMaybeInlineDispatch(target.core, msg)
		return true
	}
	return target.tell(msg)
}

// CorrelationID generates a fresh id for a synchronous request, so
// callers don't need to depend on uuid directly just to make an Ask.
func CorrelationID() uuid.UUID { return uuid.New() }
