package actor

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Future represents the result of a synchronous-style Ask call over the
// otherwise fully asynchronous actor model, ported close to verbatim
// from the teacher's interface.go since that shape already matches what
// spec §6 / §8's "sync call" scenario needs.
type Future[T any] interface {
	Await(ctx context.Context) fn.Result[T]
	OnComplete(ctx context.Context, fn func(fn.Result[T]))
}

// Promise completes the Future returned by System.Ask. The replying
// actor's handler calls System.Reply, which calls Complete on the
// pending Ask's Promise.
type Promise[T any] interface {
	Future() Future[T]
	Complete(result fn.Result[T]) bool
}

type chanPromise[T any] struct {
	once sync.Once
	done chan struct{}
	res  fn.Result[T]
}

// NewPromise builds a fresh, uncompleted Promise/Future pair.
func NewPromise[T any]() Promise[T] {
	return &chanPromise[T]{done: make(chan struct{})}
}

func (p *chanPromise[T]) Future() Future[T] { return p }

func (p *chanPromise[T]) Complete(result fn.Result[T]) bool {
	completed := false
	p.once.Do(func() {
		p.res = result
		close(p.done)
		completed = true
	})
	return completed
}

func (p *chanPromise[T]) Await(ctx context.Context) fn.Result[T] {
	select {
	case <-p.done:
		return p.res
	case <-ctx.Done():
		return fn.Err[T](ctx.Err())
	}
}

func (p *chanPromise[T]) OnComplete(ctx context.Context, cb func(fn.Result[T])) {
	go func() {
		select {
		case <-p.done:
			cb(p.res)
		case <-ctx.Done():
			cb(fn.Err[T](ctx.Err()))
		}
	}()
}
