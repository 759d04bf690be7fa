/*
 * MIT License
 *
 * Copyright (c) 2022-2025 Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package future provides a single-assignment container for values that
// become available asynchronously. It is the plumbing behind synchronous
// request/reply messaging: the caller awaits the future while the callee
// completes it at most once.
package future

import (
	"context"
	"sync"
)

// Future represents a value of type T which may or may not currently be
// available, but will be available at some point, or an error if that value
// could not be made available.
//
// A Future is completed at most once. Completions after the first are
// silently dropped, which is what lets an abandoned request/reply exchange
// discard a late reply without ever delivering it twice.
type Future[T any] interface {
	// Await blocks until the Future is completed or the context is canceled
	// and returns either a result or an error.
	Await(context.Context) (T, error)

	// Done returns a channel that is closed once the Future has been
	// completed with either a value or an error. It allows callers to select
	// over completion alongside other channels.
	Done() <-chan struct{}

	// complete completes the Future with either a value or an error.
	// It is used by [Completable] internally.
	complete(T, error)
}

// Completable represents a writable, single-assignment container,
// which completes a Future.
type Completable[T any] interface {
	// Success completes the underlying Future with a value.
	// It reports whether this call was the completing one.
	Success(T) bool

	// Failure fails the underlying Future with an error.
	// It reports whether this call was the completing one.
	Failure(error) bool

	// Future returns the underlying Future.
	Future() Future[T]
}

// New creates a new Future that executes the given long-running task in a
// separate goroutine. The Future is completed with the value returned by the
// task or failed with its error.
func New[T any](task func() (T, error)) Future[T] {
	comp := NewCompletable[T]()
	go func() {
		result, err := task()
		if err == nil {
			comp.Success(result)
		} else {
			comp.Failure(err)
		}
	}()
	return comp.Future()
}

// future implements the Future interface.
type future[T any] struct {
	acceptOnce   sync.Once
	completeOnce sync.Once
	done         chan struct{}
	value        T
	err          error
}

// Verify future satisfies the Future interface.
var _ Future[any] = (*future[any])(nil)

// newFuture returns a new future.
func newFuture[T any]() *future[T] {
	return &future[T]{
		done: make(chan struct{}),
	}
}

// wait blocks once, until the Future result is available or until
// the context is canceled.
func (x *future[T]) wait(ctx context.Context) {
	x.acceptOnce.Do(func() {
		select {
		case <-x.done:
		case <-ctx.Done():
			x.err = ctx.Err()
		}
	})
}

// Await blocks until the Future is completed or context is canceled and
// returns either a result or an error.
func (x *future[T]) Await(ctx context.Context) (T, error) {
	x.wait(ctx)
	return x.value, x.err
}

// Done returns the completion channel.
func (x *future[T]) Done() <-chan struct{} {
	return x.done
}

// complete completes the Future with either a value or an error.
func (x *future[T]) complete(value T, err error) {
	x.completeOnce.Do(func() {
		x.value = value
		x.err = err
		close(x.done)
	})
}

// completer implements the Completable interface.
type completer[T any] struct {
	once   sync.Once
	future Future[T]
}

// Verify completer satisfies the Completable interface.
var _ Completable[any] = (*completer[any])(nil)

// NewCompletable returns a new Completable.
func NewCompletable[T any]() Completable[T] {
	return &completer[T]{
		future: newFuture[T](),
	}
}

// Success completes the underlying Future with a given value.
func (p *completer[T]) Success(value T) bool {
	completed := false
	p.once.Do(func() {
		p.future.complete(value, nil)
		completed = true
	})
	return completed
}

// Failure fails the underlying Future with a given error.
func (p *completer[T]) Failure(err error) bool {
	completed := false
	p.once.Do(func() {
		var zero T
		p.future.complete(zero, err)
		completed = true
	})
	return completed
}

// Future returns the underlying Future.
func (p *completer[T]) Future() Future[T] {
	return p.future
}
