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
	"fmt"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// MonitorFunc is invoked exactly once when a monitored task terminates,
// with the task's identifier and its termination reason. It always runs on
// a dedicated goroutine so a slow or blocking callback can never stall the
// terminating task or its peers.
type MonitorFunc func(id ID, reason Reason)

// cell is the message-type-agnostic half of a running task. Everything the
// runtime needs to manage a task regardless of its message type lives here:
// identity, lifecycle state, termination reason, links and monitors. The
// typed half (mailbox access, Receive, Tell) lives in Ref, Handle and
// Context, which all point back to the same cell.
type cell struct {
	id   ID
	name string
	sys  *System

	ctx    context.Context
	cancel context.CancelFunc

	state    *atomic.Int32
	killed   *atomic.Bool
	closing  *atomic.Bool
	recving  *atomic.Bool
	poisoned *atomic.Bool

	// done is closed once the task has fully terminated: behavior returned,
	// mailbox drained into deadletters, terminate hook finished and the
	// final reason published.
	done chan struct{}

	reasonMu  sync.Mutex
	reason    Reason
	reasonSet bool
	published bool

	relMu     sync.Mutex
	relClosed bool
	links     mapset.Set[*cell]
	monitors  map[uuid.UUID]MonitorFunc

	hook        func(ctx context.Context, reason Reason)
	hookTimeout time.Duration

	// type-erased mailbox hooks installed by Spawn
	disposeOnce sync.Once
	disposer    func() []any
	mailboxLen  func() int64

	processed *atomic.Int64
	sent      *atomic.Int64
	startedAt time.Time
}

func newCell(sys *System, id ID, name string, hookTimeout time.Duration) *cell {
	ctx, cancel := context.WithCancel(sys.baseContext())
	return &cell{
		id:          id,
		name:        name,
		sys:         sys,
		ctx:         ctx,
		cancel:      cancel,
		state:       atomic.NewInt32(int32(StateStarting)),
		killed:      atomic.NewBool(false),
		closing:     atomic.NewBool(false),
		recving:     atomic.NewBool(false),
		poisoned:    atomic.NewBool(false),
		done:        make(chan struct{}),
		links:       mapset.NewSet[*cell](),
		monitors:    make(map[uuid.UUID]MonitorFunc),
		hookTimeout: hookTimeout,
		processed:   atomic.NewInt64(0),
		sent:        atomic.NewInt64(0),
		startedAt:   time.Now(),
	}
}

func (c *cell) currentState() State {
	return State(c.state.Load())
}

func (c *cell) setCurrentState(s State) {
	c.state.Store(int32(s))
}

// isLive reports whether the task can still accept messages and relations.
func (c *cell) isLive() bool {
	return c.currentState() < StateTerminating
}

// setReason records the termination reason the first time it is called;
// later calls are no-ops. It reports whether this call was the recording one.
func (c *cell) setReason(r Reason) bool {
	c.reasonMu.Lock()
	defer c.reasonMu.Unlock()
	if c.reasonSet {
		return false
	}
	c.reason = r
	c.reasonSet = true
	return true
}

// forceReason overrides the recorded reason unless it has already been
// published to monitors and links. Used when a graceful shutdown overruns
// its time budget and the termination must be reported as Timeout.
func (c *cell) forceReason(r Reason) {
	c.reasonMu.Lock()
	defer c.reasonMu.Unlock()
	if c.published {
		return
	}
	c.reason = r
	c.reasonSet = true
}

// publishReason freezes the reason and returns the final value.
func (c *cell) publishReason() Reason {
	c.reasonMu.Lock()
	defer c.reasonMu.Unlock()
	if !c.reasonSet {
		c.reason = ReasonNormal
		c.reasonSet = true
	}
	c.published = true
	return c.reason
}

// finalReason returns the published termination reason, if any.
func (c *cell) finalReason() (Reason, bool) {
	c.reasonMu.Lock()
	defer c.reasonMu.Unlock()
	if !c.published {
		return Reason{}, false
	}
	return c.reason, true
}

// closeMailbox disposes the mailbox exactly once and routes any undelivered
// messages to the deadletters topic.
func (c *cell) closeMailbox() {
	c.disposeOnce.Do(func() {
		leftovers := c.disposer()
		c.sys.publishDeadletters(c, leftovers)
	})
}

// killWith aborts the task: it records the reason, cancels the task context
// and closes the mailbox so any pending or future Receive fails fast. The
// terminate hook is skipped. The call is a no-op once termination has begun.
func (c *cell) killWith(r Reason) {
	if !c.isLive() {
		return
	}
	c.killed.Store(true)
	c.setReason(r)
	c.cancel()
	c.closeMailbox()
}

// beginShutdown asks the task to stop cooperatively: the mailbox is closed,
// the behavior observes ErrMailboxClosed on its next Receive and returns,
// and the terminate hook runs. The caller waits on done.
func (c *cell) beginShutdown() {
	c.closing.Store(true)
	c.closeMailbox()
}

// gracefulStop runs the full cooperative shutdown protocol: close the
// mailbox, wait for the task to terminate within ctx, and past the deadline
// escalate to a kill with Timeout as the reported reason.
func (c *cell) gracefulStop(ctx context.Context) error {
	if c.currentState() == StateTerminated {
		return nil
	}
	c.beginShutdown()
	if err := c.waitDone(ctx); err == nil {
		return nil
	}
	c.forceReason(ReasonTimeout)
	c.killWith(ReasonTimeout)
	kctx, cancel := context.WithTimeout(context.Background(), c.hookTimeout)
	defer cancel()
	if err := c.waitDone(kctx); err != nil {
		c.sys.logger().Errorf("task=(%s) still running after kill escalation", c.id)
	}
	return ErrShutdownTimeout
}

// waitDone blocks until the task has fully terminated or ctx expires.
func (c *cell) waitDone(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish runs the tail end of the task lifecycle on the task's own
// goroutine, after the behavior has returned: record the reason, close the
// mailbox, run the terminate hook within its time budget, then publish the
// final reason to monitors and linked peers.
func (c *cell) finish(r Reason) {
	c.setCurrentState(StateTerminating)
	c.setReason(r)
	c.cancel()
	c.closeMailbox()

	if c.hook != nil && !c.killed.Load() {
		c.runHook()
	}

	final := c.publishReason()
	c.setCurrentState(StateTerminated)
	c.sys.removeCell(c)
	c.notifyRelations(final)
	c.sys.publishEvent(&TaskTerminated{
		ID:     c.id,
		Name:   c.name,
		Reason: final,
		At:     time.Now(),
	})
	close(c.done)
}

// runHook invokes the terminate hook with a context bounded by hookTimeout.
// A hook that overruns the budget is abandoned and the termination reason
// becomes Timeout; the hook keeps the context it was handed and is expected
// to honor it.
func (c *cell) runHook() {
	hctx, hcancel := context.WithTimeout(context.Background(), c.hookTimeout)
	defer hcancel()

	c.reasonMu.Lock()
	reason := c.reason
	c.reasonMu.Unlock()

	hooked := make(chan struct{})
	go func() {
		defer close(hooked)
		defer func() {
			if v := recover(); v != nil {
				c.sys.logger().Warnf("task=(%s) terminate hook panicked: %v", c.id, v)
			}
		}()
		c.hook(hctx, reason)
	}()

	select {
	case <-hooked:
	case <-hctx.Done():
		c.sys.logger().Warnf("task=(%s) terminate hook exceeded %v", c.id, c.hookTimeout)
		c.forceReason(ReasonTimeout)
	}
}

// notifyRelations closes the relation table and delivers the final reason:
// every monitor callback fires on its own goroutine; linked peers are
// killed when the termination is abnormal and merely unlinked otherwise.
func (c *cell) notifyRelations(final Reason) {
	c.relMu.Lock()
	c.relClosed = true
	monitors := make([]MonitorFunc, 0, len(c.monitors))
	for _, fn := range c.monitors {
		monitors = append(monitors, fn)
	}
	c.monitors = nil
	peers := c.links.ToSlice()
	c.links.Clear()
	c.relMu.Unlock()

	for _, fn := range monitors {
		go fn(c.id, final)
	}

	for _, peer := range peers {
		peer.removeLink(c)
		if final.IsAbnormal() {
			peer.exitLinked(c, final)
		}
	}
}

// exitLinked terminates this task because a linked peer terminated
// abnormally. Already-terminating tasks ignore the exit, which also breaks
// propagation cycles in linked cliques.
func (c *cell) exitLinked(from *cell, r Reason) {
	c.killWith(NewKilledReason(fmt.Errorf("linked task=(%s) terminated: %s", from.id, r)))
}

// addLink registers peer in this task's link set. It reports false when the
// task has already closed its relation table.
func (c *cell) addLink(peer *cell) bool {
	c.relMu.Lock()
	defer c.relMu.Unlock()
	if c.relClosed {
		return false
	}
	c.links.Add(peer)
	return true
}

func (c *cell) removeLink(peer *cell) {
	c.relMu.Lock()
	defer c.relMu.Unlock()
	if c.relClosed {
		return
	}
	c.links.Remove(peer)
}

// addMonitor registers a monitor callback. It reports false when the task
// has already terminated; the caller then fires the callback itself with
// the published reason.
func (c *cell) addMonitor(fn MonitorFunc) (uuid.UUID, bool) {
	c.relMu.Lock()
	defer c.relMu.Unlock()
	if c.relClosed {
		return uuid.Nil, false
	}
	ref := uuid.New()
	c.monitors[ref] = fn
	return ref, true
}

func (c *cell) removeMonitor(ref uuid.UUID) {
	c.relMu.Lock()
	defer c.relMu.Unlock()
	if c.relClosed {
		return
	}
	delete(c.monitors, ref)
}

// metricsSnapshot captures the task's runtime counters.
func (c *cell) metricsSnapshot() Metrics {
	return Metrics{
		ID:             c.id,
		Name:           c.name,
		State:          c.currentState(),
		MailboxSize:    c.mailboxLen(),
		ProcessedCount: c.processed.Load(),
		SentCount:      c.sent.Load(),
		Uptime:         time.Since(c.startedAt),
	}
}
