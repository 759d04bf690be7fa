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

import "context"

// Handle is the owner's view of a task: everything a Ref can do plus the
// right to stop the task and observe its termination. Spawn returns the
// sole Handle; sharing it shares ownership.
type Handle[M any] struct {
	Ref[M]
}

// Shutdown stops the task cooperatively: the mailbox closes, undelivered
// messages go to the deadletters topic, the behavior observes
// ErrMailboxClosed on its next Receive and the terminate hook runs. When
// the task has not fully terminated before ctx expires the shutdown
// escalates to a kill, the termination is reported with reason Timeout and
// Shutdown returns ErrShutdownTimeout. Shutting down an already-terminated
// task is a no-op.
func (h *Handle[M]) Shutdown(ctx context.Context) error {
	return h.cell.gracefulStop(ctx)
}

// ShutdownWithReason stops the task like Shutdown but reports the given
// reason instead of Normal, both to the terminate hook and to links and
// monitors. An abnormal reason propagates through the task's links the same
// way a crash would.
func (h *Handle[M]) ShutdownWithReason(ctx context.Context, r Reason) error {
	h.cell.setReason(r)
	return h.cell.gracefulStop(ctx)
}

// Kill aborts the task: the task context is canceled, the mailbox closes
// and the terminate hook is skipped. The termination reason is Killed.
// Kill returns immediately; use Join to wait for the task to finish.
func (h *Handle[M]) Kill() {
	h.cell.killWith(ReasonKilled)
}

// Join blocks until the task has fully terminated or ctx expires, and
// returns the task's termination reason.
func (h *Handle[M]) Join(ctx context.Context) (Reason, error) {
	if err := h.cell.waitDone(ctx); err != nil {
		return Reason{}, err
	}
	reason, _ := h.cell.finalReason()
	return reason, nil
}

// Done returns a channel closed once the task has fully terminated.
func (h *Handle[M]) Done() <-chan struct{} {
	return h.cell.done
}

// State returns the task's lifecycle state.
func (h *Handle[M]) State() State {
	return h.cell.currentState()
}

// Reason returns the task's termination reason. The second return value is
// false until the task has fully terminated.
func (h *Handle[M]) Reason() (Reason, bool) {
	return h.cell.finalReason()
}

// Metrics returns a snapshot of the task's runtime counters.
func (h *Handle[M]) Metrics() Metrics {
	return h.cell.metricsSnapshot()
}
