package actor

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lguibr/actorcore/pkg/queue"
)

// defaultFairnessQuantum bounds how many messages an event-based actor
// processes before yielding the worker back to the run-queue (spec
// §4.6).
const defaultFairnessQuantum = 30

// Scheduler multiplexes event-based actors onto a fixed pool of worker
// goroutines over a single shared MPSC run-queue (spec §4.6). Detached
// actors bypass it entirely, each getting its own dedicated goroutine.
type Scheduler struct {
	runQueue *queue.MPSC[*coreActor]

	mu      sync.Mutex
	cond    *sync.Cond
	stopped atomic.Bool

	quantum int
	workers int
	wg      sync.WaitGroup
}

// NewScheduler builds a scheduler with the given worker count and
// fairness quantum. A workers value <= 0 defaults to GOMAXPROCS, mirroring
// spec §4.6's "default: number of hardware cores".
func NewScheduler(workers, quantum int) *Scheduler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if quantum <= 0 {
		quantum = defaultFairnessQuantum
	}
	s := &Scheduler{
		runQueue: queue.New[*coreActor](),
		quantum:  quantum,
		workers:  workers,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Start launches the worker pool.
func (s *Scheduler) Start() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.workerLoop()
	}
}

// schedule hands an event-based actor to the run-queue. It is both the
// mailbox's wake-up hook (when a push finds the actor Blocked) and the
// resume loop's own re-enqueue after a fairness quantum.
func (s *Scheduler) schedule(a *coreActor) {
	s.runQueue.Push(a)
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *Scheduler) workerLoop() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		for s.runQueue.Empty() && !s.stopped.Load() {
			s.cond.Wait()
		}
		// TryPop is single-consumer; holding mu makes the workers take
		// turns as that consumer.
		a, ok := s.runQueue.TryPop()
		s.mu.Unlock()

		if !ok {
			if s.stopped.Load() {
				return
			}
			continue
		}
		s.resume(a)
	}
}

// resume drives an event-based actor until it blocks, exits, or yields
// at the end of its fairness quantum (spec §4.6).
func (s *Scheduler) resume(a *coreActor) {
	processed := 0
	for {
		outcome := a.receiveOnce(a.behavior, true, false, time.Time{})
		switch outcome {
		case outcomeMatched:
			if _, exited := a.exit.load(); exited {
				return
			}
			processed++
			if processed >= s.quantum {
				s.schedule(a)
				return
			}
		case outcomeNoMessage:
			switch a.mbox.tryBlock() {
			case blockResultBlocked, blockResultStolen:
				// Either this worker committed the actor to Blocked, or
				// a concurrent enqueue already won the wake CAS and has
				// taken over resuming it (onWake / inline dispatch).
				// Either way this worker must stop driving it now, or
				// two goroutines end up inside receiveOnce/resume for
				// the same actor at once (spec §3 invariant 1).
				return
			case blockResultRetry:
				continue
			}
		case outcomeExited:
			return
		case outcomeTimeout:
			// Event-based resume never awaits, so the mailbox never
			// synthesizes a timeout token here; a Behavior's own After
			// clause only fires through a thread-backed Context.Receive.
			return
		}
	}
}

// sendAndMaybeInlineDispatch delivers msg to target's mailbox and reports
// whether it took the fast path: if this push is the one that wakes an
// idle event-based actor, it skips the run-queue round trip and resumes
// target directly on the calling goroutine instead of pushing it onto
// the run-queue and broadcasting the condvar (libcppa's
// actor::chained_enqueue — spec §9). Detached and thread-backed targets
// always take the ordinary path, since they are never scheduler-owned.
func (s *Scheduler) sendAndMaybeInlineDispatch(target *coreActor, msg Message) (dispatchedInline bool) {
	if target.kind != kindEventBased || target.mbox.onWake == nil {
		target.mbox.enqueue(msg)
		return false
	}
	if target.mbox.enqueueInline(msg) {
		s.resume(target)
		return true
	}
	return false
}

// Shutdown signals all workers to drain the run-queue and stop, then
// waits for them to exit (spec §4.6's shutdown()).
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.stopped.Store(true)
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
