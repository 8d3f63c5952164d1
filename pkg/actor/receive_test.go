package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoreActor() *coreActor {
	return newCoreActor(1, nil, kindThreadBacked, false, nil)
}

func TestMatchStashReplaysFIFO(t *testing.T) {
	a := newTestCoreActor()
	a.stash = []Message{NewMessage("a"), NewMessage("b")}

	var matched string
	handler := NewBehavior(On(isString("b"), func(Message) { matched = "b" }))

	ok := a.matchStash(handler)
	require.True(t, ok)
	assert.Equal(t, "b", matched)
	// The matched entry is removed, the unmatched one stays for the
	// next receive (spec §4.3 stash semantics).
	require.Len(t, a.stash, 1)
	assert.Equal(t, []any{"a"}, a.stash[0].Payload())
}

func TestReceiveOnceNonBlockingEmpty(t *testing.T) {
	a := newTestCoreActor()
	handler := NewBehavior(On(isString("a"), func(Message) {}))

	outcome := a.receiveOnce(handler, true, false, time.Time{})
	assert.Equal(t, outcomeNoMessage, outcome)
}

func TestReceiveOnceStashesUnmatched(t *testing.T) {
	a := newTestCoreActor()
	a.mbox.enqueue(NewMessage("unrelated"))
	a.mbox.enqueue(NewMessage("target"))

	handler := NewBehavior(On(isString("target"), func(Message) {}))
	outcome := a.receiveOnce(handler, true, false, time.Time{})

	assert.Equal(t, outcomeMatched, outcome)
	require.Len(t, a.stash, 1)
	assert.Equal(t, []any{"unrelated"}, a.stash[0].Payload())
}
