package actor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// ErrUnknownActor is returned by System operations that target an id not
// present in the registry (never spawned) or, except for Exit, an actor
// that has already exited.
var ErrUnknownActor = errors.New("actorcore: unknown actor id")

// spawnConfig is the options bag Spawn recognizes (spec §6): detached
// (own goroutine vs. the worker pool), linked (auto-link to a parent),
// trap_exit.
type spawnConfig struct {
	detached bool
	linkTo   *ActorID
	trapExit bool
}

// SpawnOption configures a Spawn call, following the teacher's
// functional-options convention (RegisterOption/SystemConfig).
type SpawnOption func(*spawnConfig)

// Detached spawns the actor on its own dedicated goroutine with a
// blocking mailbox instead of the worker pool.
func Detached() SpawnOption {
	return func(c *spawnConfig) { c.detached = true }
}

// LinkedTo auto-links the new actor to parent at spawn time.
func LinkedTo(parent ActorID) SpawnOption {
	return func(c *spawnConfig) { c.linkTo = &parent }
}

// TrapExit starts the actor in trap-exit mode.
func TrapExit() SpawnOption {
	return func(c *spawnConfig) { c.trapExit = true }
}

// System is the top-level control surface (spec §6 / component 8): it
// owns the registry and the scheduler and exposes Spawn/Send/Ask/
// Link/Quit/Exit/Shutdown.
type System struct {
	registry  *registry
	scheduler *Scheduler

	// asks holds completion callbacks for in-flight Ask calls, keyed by
	// correlation id, so a replying actor's Reply can complete the
	// right typed Future without the reply path needing to know R.
	asks sync.Map
}

// NewSystem builds a System with workers worker goroutines (<=0 defaults
// to GOMAXPROCS) and the given fairness quantum (<=0 defaults to 30),
// and starts its scheduler.
func NewSystem(workers, quantum int) *System {
	s := &System{
		registry:  newRegistry(),
		scheduler: NewScheduler(workers, quantum),
	}
	s.scheduler.Start()
	return s
}

func (s *System) applyLink(core *coreActor, cfg spawnConfig) {
	if cfg.linkTo == nil {
		return
	}
	core.link(*cfg.linkTo)
}

// SpawnEventBased builds an actor whose current_behavior is data the
// runtime interprets rather than a stack frame (spec §9): factory runs
// once to build the initial Handler, bound to the Context it receives
// so the handler's Do actions can call back into Quit/Link/Attach.
//
// By default the actor is multiplexed onto the worker pool. Detached()
// instead gives it a dedicated goroutine blocking directly on its
// mailbox — still a first-class actor for registry, links, and running
// count, just not scheduled (spec §4.6's detached actors).
func (s *System) SpawnEventBased(factory func(ctx *Context) Handler, opts ...SpawnOption) *Ref {
	cfg := spawnConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	id := s.registry.allocateID()

	var core *coreActor
	if cfg.detached {
		core = newCoreActor(id, s, kindEventBased, cfg.trapExit, nil)
	} else {
		core = newCoreActor(id, s, kindEventBased, cfg.trapExit, s.scheduler)
	}

	ctx := &Context{core: core}
	core.behavior = factory(ctx)

	ref := &Ref{core: core}
	s.registry.register(id, ref)
	s.applyLink(core, cfg)

	core.lifecycle = lifecycleRunning

	if cfg.detached {
		go runDetachedEventLoop(core)
	} else {
		s.scheduler.schedule(core)
	}

	return ref
}

// runDetachedEventLoop drives a detached event-based actor's own
// behavior with blocking fetches instead of the scheduler's cooperative
// resume, since it owns a dedicated goroutine and has no fairness
// quantum to share.
func runDetachedEventLoop(core *coreActor) {
	for {
		outcome := core.receiveOnce(core.behavior, false, false, time.Time{})
		if _, exited := core.exit.load(); exited {
			return
		}
		switch outcome {
		case outcomeExited:
			return
		case outcomeMatched, outcomeTimeout:
			continue
		}
	}
}

// SpawnThreadBacked builds an actor that owns a dedicated goroutine
// blocking directly on its mailbox; body is run on that goroutine and
// typically loops calling ctx.Receive until it quits.
func (s *System) SpawnThreadBacked(body func(ctx *Context), opts ...SpawnOption) *Ref {
	cfg := spawnConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	id := s.registry.allocateID()
	core := newCoreActor(id, s, kindThreadBacked, cfg.trapExit, nil)

	ref := &Ref{core: core}
	s.registry.register(id, ref)
	s.applyLink(core, cfg)

	ctx := &Context{core: core}
	core.lifecycle = lifecycleRunning

	go func() {
		body(ctx)
		core.terminate(NormalExit)
	}()

	return ref
}

// Send delivers msg to target, tagging it with from as sender. Returns
// false if target has already exited (spec §7 enqueue rejection).
func (s *System) Send(from ActorID, target *Ref, msg Message) bool {
	if e, ok := msg.(*envelope); ok {
		msg = e.withSender(from)
	}
	return target.tell(msg)
}

// SendWithCorrelation is Send plus a correlation id the receive engine's
// handler can match a reply against (spec §4.2 sync_enqueue).
func (s *System) SendWithCorrelation(from ActorID, target *Ref, corrID uuid.UUID, msg Message) bool {
	if e, ok := msg.(*envelope); ok {
		msg = e.withSender(from).withCorrelation(corrID)
	}
	return target.tell(msg)
}

// Ask sends msg to target tagged with a fresh correlation id and returns
// a Future that completes when the target's handler calls s.Reply with
// that id — the synchronous-call pattern of spec §8's "sync call"
// scenario. If no reply arrives before timeout, the Future completes
// with ctx's (or the timeout's) error; spec §9's open question on a
// late reply arriving after that point is resolved by Reply simply
// finding no pending entry and reporting false, i.e. the reply is
// discarded as stale rather than delivered anywhere.
func Ask[R any](ctx context.Context, s *System, from ActorID, target *Ref, msg Message, timeout time.Duration) Future[R] {
	corrID := uuid.New()
	promise := NewPromise[R]()

	s.asks.Store(corrID, func(v any) {
		if err, ok := v.(error); ok {
			promise.Complete(fn.Err[R](err))
			return
		}
		rv, ok := v.(R)
		if !ok {
			promise.Complete(fn.Err[R](errors.New("actorcore: ask reply type mismatch")))
			return
		}
		promise.Complete(fn.Ok(rv))
	})

	if e, ok := msg.(*envelope); ok {
		msg = e.withSender(from).withCorrelation(corrID)
	}
	if !target.tell(msg) {
		s.asks.Delete(corrID)
		promise.Complete(fn.Err[R](ErrActorTerminated))
		return promise.Future()
	}

	go func() {
		askCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		<-askCtx.Done()
		if _, stillPending := s.asks.LoadAndDelete(corrID); stillPending {
			promise.Complete(fn.Err[R](askCtx.Err()))
		}
	}()

	return promise.Future()
}

// Reply completes the pending Ask whose correlation id matches msg's,
// delivering value to its Future. It returns false if msg carries no
// correlation id, or if the Ask has already timed out or completed.
func (s *System) Reply(msg Message, value any) bool {
	corrID, ok := msg.CorrelationID()
	if !ok {
		return false
	}
	cb, ok := s.asks.LoadAndDelete(corrID)
	if !ok {
		return false
	}
	cb.(func(any))(value)
	return true
}

// Link establishes a symmetric link between a and b from outside either
// actor's own goroutine.
func (s *System) Link(a, b ActorID) error {
	refA, _, found := s.registry.get(a)
	if !found || refA == nil {
		return ErrUnknownActor
	}
	refA.core.link(b)
	return nil
}

func (s *System) Unlink(a, b ActorID) error {
	refA, _, found := s.registry.get(a)
	if !found || refA == nil {
		return ErrUnknownActor
	}
	refA.core.unlink(b)
	return nil
}

// Exit terminates target with reason from outside the actor itself
// (spec §6's exit(target, reason)). It is idempotent: calling it again
// for an actor that has already exited is a no-op that returns nil.
func (s *System) Exit(target ActorID, reason ExitReason) error {
	ref, _, found := s.registry.get(target)
	if !found {
		return ErrUnknownActor
	}
	if ref == nil {
		return nil
	}
	ref.core.terminate(reason)
	return nil
}

// Lookup resolves an id to its live ref, or its retained exit reason if
// the actor has already exited (spec §7 registry miss).
func (s *System) Lookup(id ActorID) (ref *Ref, reason ExitReason, found bool) {
	return s.registry.get(id)
}

// AwaitAllOthersDone blocks until the running-actors counter reaches
// expected (spec §4.6's await_all_others_done).
func (s *System) AwaitAllOthersDone(expected int) {
	s.registry.awaitRunningCount(expected)
}

// RunningCount reports the number of actors that have not yet exited.
func (s *System) RunningCount() int {
	return s.registry.runningCount()
}

// Shutdown drains the scheduler's run-queue and joins its workers (spec
// §4.6's shutdown()). It does not refuse later Spawn or Send calls; a
// pool-scheduled actor queued after the workers have exited is not run.
func (s *System) Shutdown(ctx context.Context) error {
	return s.scheduler.Shutdown(ctx)
}
