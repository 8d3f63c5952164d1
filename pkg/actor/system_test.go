package actor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isLinkedDown(payload []any) bool {
	if len(payload) != 1 {
		return false
	}
	_, ok := payload[0].(LinkedDownNotice)
	return ok
}

// TestLinkPropagationTransitive is spec.md §8's link-propagation scenario:
// A links to B, A quits UserDefined(42); B, not trapping, terminates with
// LinkedDown(UserDefined(42)); C, linked to B, observes the forwarded
// reason nested rather than flattened to Normal.
func TestLinkPropagationTransitive(t *testing.T) {
	sys := NewSystem(2, 10)
	defer sys.Shutdown(context.Background())

	idle := func(ctx *Context) {
		ctx.ReceiveWhile(func() bool { return true }, NewBehavior())
	}

	refB := sys.SpawnThreadBacked(idle)
	refC := sys.SpawnThreadBacked(idle, LinkedTo(refB.ID()))
	refA := sys.SpawnThreadBacked(func(ctx *Context) {
		ctx.Quit(UserDefinedExit(42))
	}, LinkedTo(refB.ID()))

	refA.Wait()
	refB.Wait()
	refC.Wait()

	_, reasonB, found := sys.Lookup(refB.ID())
	require.True(t, found)
	require.Equal(t, LinkedDown, reasonB.Kind)
	require.NotNil(t, reasonB.Peer)
	assert.Equal(t, UserDefined, reasonB.Peer.Kind)
	assert.Equal(t, uint32(42), reasonB.Peer.Code)

	_, reasonC, found := sys.Lookup(refC.ID())
	require.True(t, found)
	require.Equal(t, LinkedDown, reasonC.Kind)
	require.NotNil(t, reasonC.Peer)
	require.Equal(t, LinkedDown, reasonC.Peer.Kind)
	require.NotNil(t, reasonC.Peer.Peer)
	assert.Equal(t, UserDefined, reasonC.Peer.Peer.Kind)
	assert.Equal(t, uint32(42), reasonC.Peer.Peer.Code)
}

// TestTrapExitDeliversAsMessage is spec.md §8's trap-exit scenario: B
// traps exits, so it receives the linked-down notice as an ordinary
// message and keeps running instead of auto-terminating.
func TestTrapExitDeliversAsMessage(t *testing.T) {
	sys := NewSystem(2, 10)
	defer sys.Shutdown(context.Background())

	received := make(chan LinkedDownNotice, 1)
	refB := sys.SpawnThreadBacked(func(ctx *Context) {
		handler := NewBehavior(On(isLinkedDown, func(msg Message) {
			received <- msg.Payload()[0].(LinkedDownNotice)
		}))
		if err := ctx.Receive(handler); err != nil {
			return
		}
		ctx.ReceiveWhile(func() bool { return true }, NewBehavior())
	}, TrapExit())

	refA := sys.SpawnThreadBacked(func(ctx *Context) {
		ctx.Quit(UserDefinedExit(7))
	}, LinkedTo(refB.ID()))
	refA.Wait()

	select {
	case notice := <-received:
		assert.Equal(t, refA.ID(), notice.From)
		assert.Equal(t, UserDefined, notice.Reason.Kind)
		assert.Equal(t, uint32(7), notice.Reason.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("B never received the linked-down notice")
	}

	assert.True(t, refB.IsAlive())
}

// TestAskReceivesCorrelatedReply is spec.md §8's sync-call scenario: A
// asks B with a fresh correlation id; B's handler replies through
// System.Reply using that id, and A's Future yields the reply. No
// unrelated message is sent here.
func TestAskReceivesCorrelatedReply(t *testing.T) {
	sys := NewSystem(2, 10)
	defer sys.Shutdown(context.Background())

	refB := sys.SpawnThreadBacked(func(ctx *Context) {
		handler := NewBehavior(On(isString("ping"), func(msg Message) {
			sys.Reply(msg, "pong")
		}))
		require.NoError(t, ctx.Receive(handler))
	})

	bg := context.Background()
	fut := Ask[string](bg, sys, 0, refB, NewMessage("ping"), time.Second)
	res := fut.Await(bg)
	val, err := res.Unpack()
	require.NoError(t, err)
	assert.Equal(t, "pong", val)
}

// TestAskTimesOutWithNoReply covers an Ask whose target never replies:
// the Future completes with a deadline error rather than hanging.
func TestAskTimesOutWithNoReply(t *testing.T) {
	sys := NewSystem(2, 10)
	defer sys.Shutdown(context.Background())

	refB := sys.SpawnThreadBacked(func(ctx *Context) {
		ctx.ReceiveWhile(func() bool { return true }, NewBehavior())
	})

	bg := context.Background()
	fut := Ask[string](bg, sys, 0, refB, NewMessage("ping"), 20*time.Millisecond)
	res := fut.Await(bg)
	assert.True(t, res.IsErr())
}

// TestShutdownDrainsManyQuittingActors is spec.md §8's shutdown scenario:
// spawn many event-based actors that each loop until told to quit, tell
// them all to quit and wait for the running count to reach zero; every id
// then reports gone-with-Normal, and shutting the system down succeeds.
func TestShutdownDrainsManyQuittingActors(t *testing.T) {
	sys := NewSystem(4, 8)

	const n = 200
	refs := make([]*Ref, n)
	for i := 0; i < n; i++ {
		refs[i] = sys.SpawnEventBased(func(ctx *Context) Handler {
			return NewBehavior(On(isString("stop"), func(Message) {
				ctx.Quit(NormalExit)
			}))
		})
	}

	for _, r := range refs {
		sys.Send(0, r, NewMessage("stop"))
	}

	sys.AwaitAllOthersDone(0)

	for _, r := range refs {
		_, reason, found := sys.Lookup(r.ID())
		require.True(t, found)
		assert.Equal(t, Normal, reason.Kind)
	}

	require.NoError(t, sys.Shutdown(context.Background()))
}

// TestReceiveWithTimeoutFiresOnceThenAcceptsLateMessage is spec.md §8's
// timeout scenario: a timed receive on an empty mailbox fires its
// timeout branch exactly once, and a message sent afterward is enqueued
// normally to the still-live actor.
func TestReceiveWithTimeoutFiresOnceThenAcceptsLateMessage(t *testing.T) {
	sys := NewSystem(2, 10)
	defer sys.Shutdown(context.Background())

	var timeouts atomic.Int32
	gotLater := make(chan struct{}, 1)

	refB := sys.SpawnThreadBacked(func(ctx *Context) {
		err := ctx.ReceiveWithTimeout(NewBehavior(), 30*time.Millisecond, func() {
			timeouts.Add(1)
		})
		require.NoError(t, err)

		handler := NewBehavior(On(isString("later"), func(Message) {
			gotLater <- struct{}{}
		}))
		require.NoError(t, ctx.Receive(handler))
	})

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), timeouts.Load())

	sys.Send(0, refB, NewMessage("later"))

	select {
	case <-gotLater:
	case <-time.After(time.Second):
		t.Fatal("late message never delivered after timeout fired")
	}
}

// TestMailboxThroughputEndToEnd is a scaled-down version of spec.md §8's
// mailbox-perf scenario: N detached senders each send count copies of a
// message to one receiver, which terminates Normal after exactly their
// product.
func TestMailboxThroughputEndToEnd(t *testing.T) {
	sys := NewSystem(4, 16)
	defer sys.Shutdown(context.Background())

	const senders = 8
	const perSender = 2000
	total := senders * perSender

	var processed atomic.Int64
	doneCh := make(chan struct{})

	refR := sys.SpawnEventBased(func(ctx *Context) Handler {
		return NewBehavior(On(isString("msg"), func(Message) {
			if processed.Add(1) == int64(total) {
				ctx.Quit(NormalExit)
				close(doneCh)
			}
		}))
	})

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		sys.SpawnThreadBacked(func(ctx *Context) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				sys.Send(0, refR, NewMessage("msg"))
			}
		}, Detached())
	}

	wg.Wait()

	select {
	case <-doneCh:
	case <-time.After(10 * time.Second):
		t.Fatalf("receiver only processed %d/%d messages", processed.Load(), total)
	}

	assert.Equal(t, int64(total), processed.Load())

	_, reason, found := sys.Lookup(refR.ID())
	require.True(t, found)
	assert.Equal(t, Normal, reason.Kind)
}

// TestContextTellInlineDispatch exercises the chained_enqueue-style fast
// path: an event-based actor's action sends to another idle event-based
// actor via Context.Tell, which should deliver and wake it without
// losing the message.
func TestContextTellInlineDispatch(t *testing.T) {
	sys := NewSystem(2, 10)
	defer sys.Shutdown(context.Background())

	received := make(chan struct{}, 1)
	refTarget := sys.SpawnEventBased(func(ctx *Context) Handler {
		return NewBehavior(On(isString("ping"), func(Message) {
			received <- struct{}{}
		}))
	})

	sourceReady := make(chan *Context, 1)
	sys.SpawnEventBased(func(ctx *Context) Handler {
		sourceReady <- ctx
		return NewBehavior(On(isString("go"), func(Message) {
			ctx.Tell(refTarget, NewMessage("ping"))
		}))
	})

	src := <-sourceReady
	sys.Send(0, &Ref{core: src.core}, NewMessage("go"))

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("inline-dispatched message never arrived")
	}
}

// TestAttachFuncRunsExactlyOnce is spec.md §8's idempotence property:
// exit(A, r) called k times results in exactly one notification per
// attachment.
func TestAttachFuncRunsExactlyOnce(t *testing.T) {
	sys := NewSystem(2, 10)
	defer sys.Shutdown(context.Background())

	var calls atomic.Int32
	ref := sys.SpawnThreadBacked(func(ctx *Context) {
		ctx.ReceiveWhile(func() bool { return true }, NewBehavior())
	})
	ref.AttachFunc(func(ExitReason) { calls.Add(1) })

	require.NoError(t, sys.Exit(ref.ID(), NormalExit))
	for i := 1; i < 5; i++ {
		require.ErrorIs(t, sys.Exit(ref.ID(), NormalExit), ErrUnknownActor)
	}
	ref.Wait()

	assert.Equal(t, int32(1), calls.Load())
}
