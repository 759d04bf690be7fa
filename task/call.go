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

package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tasknet-run/tasknet/future"
)

// ReplyTo is the reply channel a caller embeds in a request message. The
// callee completes it at most once with Reply or Fail; later completions
// report false and are discarded. A ReplyTo may be completed from any
// goroutine and outlive the request handler.
type ReplyTo[R any] struct {
	comp future.Completable[R]
}

// Reply completes the pending call with a value. It reports whether this
// call was the completing one.
func (r ReplyTo[R]) Reply(value R) bool {
	return r.comp.Success(value)
}

// Fail completes the pending call with an error. It reports whether this
// call was the completing one.
func (r ReplyTo[R]) Fail(err error) bool {
	return r.comp.Failure(err)
}

// Call performs a synchronous request against target: build receives a
// fresh ReplyTo to embed in the request message, the message is delivered
// via Tell and the caller blocks until the callee replies, the timeout
// elapses (ErrCallTimeout) or the target terminates before replying
// (ErrDisconnected, wrapping the termination reason). A call against a
// target that is already gone fails fast with ErrNoTarget.
//
// Example:
//
//	type getUser struct {
//		id      string
//		replyTo task.ReplyTo[User]
//	}
//
//	user, err := task.Call(ctx, store, func(r task.ReplyTo[User]) getUser {
//		return getUser{id: "42", replyTo: r}
//	}, time.Second)
func Call[M, R any](ctx context.Context, target Ref[M], build func(replyTo ReplyTo[R]) M, timeout time.Duration) (R, error) {
	var none R
	if timeout <= 0 {
		return none, ErrInvalidTimeout
	}
	if build == nil {
		return none, errors.New("build is required")
	}
	if !target.IsAlive() {
		return none, ErrNoTarget
	}

	comp := future.NewCompletable[R]()
	msg := build(ReplyTo[R]{comp: comp})
	if err := target.Tell(msg); err != nil {
		if errors.Is(err, ErrMailboxClosed) {
			return none, ErrNoTarget
		}
		return none, err
	}

	// fail the call if the target dies with the request in flight
	watch := monitorCell(target.cell, func(_ ID, reason Reason) {
		comp.Failure(fmt.Errorf("%w: %s", ErrDisconnected, reason))
	})
	defer target.cell.removeMonitor(watch)

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := comp.Future().Await(cctx)
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return none, ErrCallTimeout
	default:
		return none, err
	}
}
