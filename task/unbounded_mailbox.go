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
	"errors"
	"time"

	"github.com/Workiva/go-datastructures/queue"
)

// UnboundedMailbox is a thread-safe mailbox with no capacity limit.
// Enqueue never returns ErrMailboxFull; memory is the only bound.
// This is the default mailbox used by Spawn.
type UnboundedMailbox[M any] struct {
	underlying *queue.Queue
}

// enforce compilation error
var _ Mailbox[any] = (*UnboundedMailbox[any])(nil)

// NewUnboundedMailbox creates an UnboundedMailbox.
func NewUnboundedMailbox[M any]() *UnboundedMailbox[M] {
	return &UnboundedMailbox[M]{
		underlying: queue.New(16),
	}
}

// Enqueue pushes a message into the mailbox. It only fails with
// ErrMailboxClosed once the mailbox has been disposed.
func (m *UnboundedMailbox[M]) Enqueue(msg M) error {
	if err := m.underlying.Put(msg); err != nil {
		if errors.Is(err, queue.ErrDisposed) {
			return ErrMailboxClosed
		}
		return err
	}
	return nil
}

// Dequeue pops the next message, waiting up to timeout for one to arrive.
// A timeout of zero or less blocks until a message is available or the
// mailbox is disposed.
func (m *UnboundedMailbox[M]) Dequeue(timeout time.Duration) (msg M, err error) {
	var (
		items []any
		none  M
	)
	if timeout <= 0 {
		items, err = m.underlying.Get(1)
	} else {
		items, err = m.underlying.Poll(1, timeout)
	}
	switch {
	case errors.Is(err, queue.ErrDisposed):
		return none, ErrMailboxClosed
	case errors.Is(err, queue.ErrTimeout):
		return none, ErrReceiveTimeout
	case err != nil:
		return none, err
	}
	return items[0].(M), nil
}

// IsEmpty reports whether the mailbox currently has no messages.
func (m *UnboundedMailbox[M]) IsEmpty() bool {
	return m.underlying.Empty()
}

// Len returns a snapshot of the number of messages in the mailbox.
func (m *UnboundedMailbox[M]) Len() int64 {
	return m.underlying.Len()
}

// Dispose closes the mailbox and returns the undelivered messages
// in arrival order.
func (m *UnboundedMailbox[M]) Dispose() []M {
	items := m.underlying.Dispose()
	leftovers := make([]M, 0, len(items))
	for _, item := range items {
		leftovers = append(leftovers, item.(M))
	}
	return leftovers
}
