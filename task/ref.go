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

// Linkable is satisfied by every typed view of a task, Ref, Handle and
// Context, so links and monitors can be established across tasks with
// different message types.
type Linkable interface {
	cellRef() *cell
}

// Ref is a send-only reference to a task with message type M. Refs are
// cheap values, safe to copy and to share across goroutines; handing one
// out grants the right to send, not to stop or join the task.
type Ref[M any] struct {
	cell    *cell
	mailbox Mailbox[M]
}

// enforce compilation error
var _ Linkable = Ref[any]{}

// ID returns the task identifier.
func (r Ref[M]) ID() ID {
	return r.cell.id
}

// Name returns the task's label, empty when none was set at spawn.
func (r Ref[M]) Name() string {
	return r.cell.name
}

// IsAlive reports whether the task has not begun terminating. It is a
// snapshot; the task may terminate right after the call returns true.
func (r Ref[M]) IsAlive() bool {
	return r.cell.isLive()
}

// Tell enqueues a message into the task's mailbox. It fails with
// ErrMailboxClosed once the task has terminated or begun shutting down and
// with ErrMailboxFull when a bounded mailbox is at capacity; in both cases
// the message is published to the deadletters topic.
func (r Ref[M]) Tell(msg M) error {
	if err := r.mailbox.Enqueue(msg); err != nil {
		r.cell.sys.events.Publish(TopicDeadletters, &Deadletter{
			ID:      r.cell.id,
			Name:    r.cell.name,
			Message: msg,
			At:      time.Now(),
		})
		return err
	}
	return nil
}

// Cast is fire-and-forget Tell: delivery failures only surface on the
// deadletters topic.
func (r Ref[M]) Cast(msg M) {
	if err := r.Tell(msg); err != nil {
		r.cell.sys.logger().Debugf("task=(%s) cast dropped: %v", r.cell.id, err)
	}
}

func (r Ref[M]) cellRef() *cell {
	return r.cell
}
