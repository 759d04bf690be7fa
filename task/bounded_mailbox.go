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

// BoundedMailbox is a thread-safe mailbox with a fixed capacity backed by a
// pre-allocated ring buffer. Once full, Enqueue fails fast with
// ErrMailboxFull instead of blocking the producer; the message is never
// silently dropped, the sender decides how to handle the pressure.
type BoundedMailbox[M any] struct {
	underlying *queue.RingBuffer
}

// enforce compilation error
var _ Mailbox[any] = (*BoundedMailbox[any])(nil)

// NewBoundedMailbox creates a BoundedMailbox with the given capacity.
// Capacity values below one are raised to one.
func NewBoundedMailbox[M any](capacity int) *BoundedMailbox[M] {
	if capacity < 1 {
		capacity = 1
	}
	return &BoundedMailbox[M]{
		underlying: queue.NewRingBuffer(uint64(capacity)),
	}
}

// Enqueue pushes a message into the mailbox. It returns ErrMailboxFull when
// the mailbox is at capacity and ErrMailboxClosed once it has been disposed.
func (m *BoundedMailbox[M]) Enqueue(msg M) error {
	ok, err := m.underlying.Offer(msg)
	switch {
	case errors.Is(err, queue.ErrDisposed):
		return ErrMailboxClosed
	case err != nil:
		return err
	case !ok:
		return ErrMailboxFull
	}
	return nil
}

// Dequeue pops the next message, waiting up to timeout for one to arrive.
// A timeout of zero or less blocks until a message is available or the
// mailbox is disposed.
func (m *BoundedMailbox[M]) Dequeue(timeout time.Duration) (msg M, err error) {
	var (
		item any
		none M
	)
	if timeout <= 0 {
		item, err = m.underlying.Get()
	} else {
		item, err = m.underlying.Poll(timeout)
	}
	switch {
	case errors.Is(err, queue.ErrDisposed):
		return none, ErrMailboxClosed
	case errors.Is(err, queue.ErrTimeout):
		return none, ErrReceiveTimeout
	case err != nil:
		return none, err
	}
	return item.(M), nil
}

// IsEmpty reports whether the mailbox currently has no messages.
func (m *BoundedMailbox[M]) IsEmpty() bool {
	return m.underlying.Len() == 0
}

// Len returns a snapshot of the number of messages in the mailbox.
func (m *BoundedMailbox[M]) Len() int64 {
	return int64(m.underlying.Len())
}

// Dispose closes the mailbox and unblocks waiters. The ring buffer does not
// report its leftovers, so undelivered messages are not surfaced as
// deadletters for bounded mailboxes.
func (m *BoundedMailbox[M]) Dispose() []M {
	m.underlying.Dispose()
	return nil
}
