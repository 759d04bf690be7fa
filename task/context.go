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
	"time"

	"github.com/google/uuid"

	"github.com/tasknet-run/tasknet/log"
)

// Context is the receiving side of a task, handed to its Behavior's Run.
// It owns the mailbox consumer slot: only the task's own goroutine may call
// Receive and its variants. A Receive issued while another is in flight,
// necessarily from a foreign goroutine, poisons the mailbox permanently and
// every receive from then on fails with ErrMailboxPoisoned.
type Context[M any] struct {
	cell    *cell
	mailbox Mailbox[M]

	// stash holds messages set aside by ReceiveMatch, consumed in arrival
	// order before the mailbox on subsequent receives. Only the task
	// goroutine touches it.
	stash []M
}

// enforce compilation error
var _ Linkable = (*Context[any])(nil)

// Context returns the task's context. It is canceled when the task is
// killed, when its behavior returns or when the system stops; long-running
// work inside Run should honor it.
func (rctx *Context[M]) Context() context.Context {
	return rctx.cell.ctx
}

// Done is shorthand for Context().Done().
func (rctx *Context[M]) Done() <-chan struct{} {
	return rctx.cell.ctx.Done()
}

// ID returns the task identifier.
func (rctx *Context[M]) ID() ID {
	return rctx.cell.id
}

// Name returns the task's label, empty when none was set at spawn.
func (rctx *Context[M]) Name() string {
	return rctx.cell.name
}

// System returns the system the task runs in.
func (rctx *Context[M]) System() *System {
	return rctx.cell.sys
}

// Log returns the system logger.
func (rctx *Context[M]) Log() log.Logger {
	return rctx.cell.sys.logger()
}

// Self returns a send-only reference to this task, suitable for handing to
// other tasks.
func (rctx *Context[M]) Self() Ref[M] {
	return Ref[M]{cell: rctx.cell, mailbox: rctx.mailbox}
}

// Send delivers msg to target on behalf of the task owning rctx, crediting
// the send to that task's metrics. It is otherwise identical to target.Tell.
func Send[M, N any](rctx *Context[N], target Ref[M], msg M) error {
	if err := target.Tell(msg); err != nil {
		return err
	}
	rctx.cell.sent.Inc()
	return nil
}

// Link links this task to peer; see System.Link.
func (rctx *Context[M]) Link(peer Linkable) {
	linkCells(rctx.cell, peer.cellRef())
}

// Unlink removes the link between this task and peer.
func (rctx *Context[M]) Unlink(peer Linkable) {
	unlinkCells(rctx.cell, peer.cellRef())
}

// Monitor watches peer for termination; see System.Monitor.
func (rctx *Context[M]) Monitor(peer Linkable, fn MonitorFunc) uuid.UUID {
	return monitorCell(peer.cellRef(), fn)
}

// Receive blocks until a message arrives and returns it. It fails with
// ErrMailboxClosed once the mailbox has been closed by a shutdown or kill,
// and with ErrMailboxPoisoned after a concurrent receive has been detected.
// Messages stashed by ReceiveMatch are returned first, in arrival order.
func (rctx *Context[M]) Receive() (M, error) {
	return rctx.receive(0)
}

// ReceiveTimeout is Receive bounded by a deadline: when no message arrives
// within timeout it fails with ErrReceiveTimeout. The timeout must be
// positive.
func (rctx *Context[M]) ReceiveTimeout(timeout time.Duration) (M, error) {
	var none M
	if timeout <= 0 {
		return none, ErrInvalidTimeout
	}
	return rctx.receive(timeout)
}

// ReceiveMatch returns the oldest message satisfying match, skipping over
// those that do not: skipped messages are stashed and handed out by later
// receives in their original arrival order, so selective receive never
// reorders or drops traffic. A timeout of zero or less blocks until a match
// arrives; otherwise ErrReceiveTimeout is returned once timeout elapses,
// with the stash intact. A nil match degenerates to a plain receive.
func (rctx *Context[M]) ReceiveMatch(match func(M) bool, timeout time.Duration) (M, error) {
	if match == nil {
		return rctx.receive(timeout)
	}
	var none M
	if err := rctx.enterReceive(); err != nil {
		return none, err
	}
	defer rctx.exitReceive()

	for i, msg := range rctx.stash {
		if match(msg) {
			rctx.stash = append(rctx.stash[:i], rctx.stash[i+1:]...)
			rctx.cell.processed.Inc()
			return msg, nil
		}
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		var wait time.Duration
		if timeout > 0 {
			wait = time.Until(deadline)
			if wait <= 0 {
				return none, ErrReceiveTimeout
			}
		}
		msg, err := rctx.mailbox.Dequeue(wait)
		if err != nil {
			return none, err
		}
		if match(msg) {
			rctx.cell.processed.Inc()
			return msg, nil
		}
		rctx.stash = append(rctx.stash, msg)
	}
}

func (rctx *Context[M]) receive(timeout time.Duration) (M, error) {
	var none M
	if err := rctx.enterReceive(); err != nil {
		return none, err
	}
	defer rctx.exitReceive()

	if len(rctx.stash) > 0 {
		msg := rctx.stash[0]
		rctx.stash = rctx.stash[1:]
		rctx.cell.processed.Inc()
		return msg, nil
	}
	msg, err := rctx.mailbox.Dequeue(timeout)
	if err != nil {
		return none, err
	}
	rctx.cell.processed.Inc()
	return msg, nil
}

// enterReceive claims the mailbox consumer slot. Failing to claim it means
// two receives are racing, which can only happen when Run leaked its
// Context to another goroutine; the mailbox is poisoned for good.
func (rctx *Context[M]) enterReceive() error {
	if rctx.cell.poisoned.Load() {
		return ErrMailboxPoisoned
	}
	if !rctx.cell.recving.CompareAndSwap(false, true) {
		rctx.cell.poisoned.Store(true)
		return ErrMailboxPoisoned
	}
	return nil
}

func (rctx *Context[M]) exitReceive() {
	rctx.cell.recving.Store(false)
}

func (rctx *Context[M]) cellRef() *cell {
	return rctx.cell
}
