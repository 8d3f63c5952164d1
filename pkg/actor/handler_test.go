package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func isString(s string) func([]any) bool {
	return func(payload []any) bool {
		return len(payload) == 1 && payload[0] == s
	}
}

func TestBehaviorMatchInOrder(t *testing.T) {
	var got string
	b := NewBehavior(
		On(isString("a"), func(Message) { got = "matched a" }),
		On(isString("b"), func(Message) { got = "matched b" }),
	)

	action, ok := b.Match(NewMessage("b"))
	assert.True(t, ok)
	action(NewMessage("b"))
	assert.Equal(t, "matched b", got)
}

func TestBehaviorNoMatch(t *testing.T) {
	b := NewBehavior(On(isString("a"), func(Message) {}))
	_, ok := b.Match(NewMessage("z"))
	assert.False(t, ok)
}

func TestBehaviorSplice(t *testing.T) {
	var got string
	first := NewBehavior(On(isString("a"), func(Message) { got = "first" }))
	second := NewBehavior(On(isString("b"), func(Message) { got = "second" }))

	spliced := first.Splice(second)

	action, ok := spliced.Match(NewMessage("b"))
	assert.True(t, ok)
	action(NewMessage("b"))
	assert.Equal(t, "second", got)

	_, ok = spliced.Match(NewMessage("nope"))
	assert.False(t, ok)
}
