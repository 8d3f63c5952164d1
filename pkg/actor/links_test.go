package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkStateAttachExactlyOnce(t *testing.T) {
	ls := newLinkState()

	var calls int
	tok := ls.attach(func(r ExitReason) { calls++ })

	cbs := ls.drainAttachments()
	for _, cb := range cbs {
		cb(NormalExit)
	}
	assert.Equal(t, 1, calls)

	// Draining is one-shot: a second drain finds nothing left, so a
	// leftover reference to tok can't fire the callback again.
	_ = tok
	assert.Empty(t, ls.drainAttachments())
}

func TestLinkStateDetach(t *testing.T) {
	ls := newLinkState()
	var called bool
	tok := ls.attach(func(ExitReason) { called = true })
	ls.detach(tok)

	for _, cb := range ls.drainAttachments() {
		cb(NormalExit)
	}
	assert.False(t, called)
}

func TestLinkStateLinkSet(t *testing.T) {
	ls := newLinkState()
	ls.addLink(1)
	ls.addLink(2)
	assert.ElementsMatch(t, []ActorID{1, 2}, ls.snapshotLinks())

	ls.removeLink(1)
	assert.ElementsMatch(t, []ActorID{2}, ls.snapshotLinks())
}
