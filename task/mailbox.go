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

import "time"

// Mailbox defines the contract for a task's message queue.
//
// Concurrency and ordering
//   - Implementations MUST be safe for multiple concurrent producers calling
//     Enqueue (MPSC). Exactly one consumer, the owning task, calls Dequeue.
//   - Messages from a single producer MUST be dequeued in the order they were
//     enqueued. No ordering is guaranteed across distinct producers.
//
// Blocking behavior
//   - Enqueue MUST NOT block. Bounded implementations return ErrMailboxFull
//     when at capacity; any implementation returns ErrMailboxClosed once the
//     mailbox has been disposed.
//   - Dequeue suspends the caller until a message arrives, the given timeout
//     elapses (ErrReceiveTimeout) or the mailbox is disposed
//     (ErrMailboxClosed). A timeout of zero or less means no deadline.
//
// Resource management
//   - Dispose closes the mailbox and unblocks any pending Dequeue. It returns
//     the messages left undelivered, in arrival order, so the runtime can
//     surface them as deadletters. Implementations MAY return nil when the
//     backing structure cannot report leftovers.
type Mailbox[M any] interface {
	// Enqueue pushes a message into the mailbox.
	Enqueue(msg M) error
	// Dequeue pops the next message, waiting up to timeout for one to arrive.
	Dequeue(timeout time.Duration) (M, error)
	// IsEmpty reports whether the mailbox currently has no messages.
	// This is a best-effort snapshot under concurrency.
	IsEmpty() bool
	// Len returns a snapshot of the number of messages in the mailbox.
	Len() int64
	// Dispose closes the mailbox, unblocks waiters and returns any
	// undelivered messages.
	Dispose() []M
}
