package queue

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMPSCSingleProducer(t *testing.T) {
	q := New[int]()
	for i := 0; i < 100; i++ {
		q.Push(i)
	}
	for i := 0; i < 100; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.TryPop()
	assert.False(t, ok)
	assert.True(t, q.Empty())
}

func TestMPSCEmptyPop(t *testing.T) {
	q := New[string]()
	_, ok := q.TryPop()
	assert.False(t, ok)
}

// TestMPSCNoLossNoDuplication is the property named in spec.md §8 item 4:
// for K producers and 1 consumer, the consumer observes exactly the
// multiset of pushed items.
func TestMPSCNoLossNoDuplication(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		producers := rapid.IntRange(1, 8).Draw(t, "producers")
		perProducer := rapid.IntRange(1, 200).Draw(t, "perProducer")

		q := New[int]()
		var wg sync.WaitGroup
		for p := 0; p < producers; p++ {
			wg.Add(1)
			base := p * perProducer
			go func(base int) {
				defer wg.Done()
				for i := 0; i < perProducer; i++ {
					q.Push(base + i)
				}
			}(base)
		}

		got := make([]int, 0, producers*perProducer)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for len(got) < producers*perProducer {
				if v, ok := q.TryPop(); ok {
					got = append(got, v)
				}
			}
		}()

		wg.Wait()
		<-done

		want := make([]int, 0, producers*perProducer)
		for i := 0; i < producers*perProducer; i++ {
			want = append(want, i)
		}
		sort.Ints(got)
		assert.Equal(t, want, got)
	})
}

func TestMPSCPerProducerOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 500).Draw(t, "n")
		q := New[int]()
		for i := 0; i < n; i++ {
			q.Push(i)
		}
		for i := 0; i < n; i++ {
			v, ok := q.TryPop()
			require.True(t, ok)
			require.Equal(t, i, v)
		}
	})
}
