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
	"time"

	"github.com/flowchartsman/retry"
	"github.com/google/uuid"

	"github.com/tasknet-run/tasknet/future"
)

// Strategy selects which children a supervisor restarts when one of them
// terminates abnormally.
type Strategy int

const (
	// OneForOne restarts only the failed child.
	OneForOne Strategy = iota
	// OneForAll stops every other running child, in reverse start order,
	// then restarts all of them in start order.
	OneForAll
	// RestForOne stops the running children started after the failed one,
	// in reverse start order, then restarts the failed child and those
	// children in start order.
	RestForOne
)

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	switch s {
	case OneForOne:
		return "OneForOne"
	case OneForAll:
		return "OneForAll"
	case RestForOne:
		return "RestForOne"
	default:
		return "Unknown"
	}
}

// StartFunc starts one incarnation of a supervised child and returns a
// reference to it, typically the Handle from a Spawn. It is called for the
// initial start and for every restart.
type StartFunc func(ctx context.Context, sys *System) (Linkable, error)

// ChildSpec describes one supervised child: a stable name, unique within
// its supervisor, and the recipe to (re)start it.
type ChildSpec struct {
	// Name identifies the child in snapshots, events and errors.
	Name string
	// Start starts a fresh incarnation of the child.
	Start StartFunc
}

// ChildStatus is one row of a supervisor snapshot.
type ChildStatus struct {
	// Name is the child's spec name.
	Name string
	// ID identifies the child's current incarnation, zero when the child is
	// not running.
	ID ID
	// State is the current incarnation's lifecycle state.
	State State
	// Restarts is the number of times this child has been restarted.
	Restarts int
}

// supervisor mailbox traffic
type supervisorEvent any

type childExit struct {
	name   string
	id     ID
	reason Reason
}

type supSnapshot struct {
	replyTo ReplyTo[[]ChildStatus]
}

// childState tracks one running incarnation of a child.
type childState struct {
	spec     ChildSpec
	cell     *cell
	supWatch uuid.UUID
	restarts int
	running  bool
	// completed marks a child that exited normally on its own; such a
	// child stays stopped, even across OneForAll and RestForOne sweeps
	completed bool
}

// supervisorBehavior is the body of a supervisor task. Children report
// their exits through the supervisor's own mailbox, via monitors
// established at start time, so restart decisions are serialized with no
// extra locking: one failure is fully handled before the next is looked at.
type supervisorBehavior struct {
	spec  *SupervisorSpec
	ready future.Completable[struct{}]

	children map[string]*childState
	order    []string

	restarts    int
	windowStart time.Time
}

var _ Behavior[supervisorEvent] = (*supervisorBehavior)(nil)

func (b *supervisorBehavior) Run(rctx *Context[supervisorEvent]) error {
	b.children = make(map[string]*childState, len(b.spec.children))
	if err := b.startAll(rctx); err != nil {
		b.stopAll(rctx)
		b.ready.Failure(err)
		return err
	}
	b.ready.Success(struct{}{})

	for {
		msg, err := rctx.Receive()
		if err != nil {
			// on a kill the death watch takes the children down; stopping
			// them here would soften the exit to Normal
			if !rctx.cell.killed.Load() {
				b.stopAll(rctx)
			}
			if errors.Is(err, ErrMailboxClosed) {
				return nil
			}
			return err
		}
		switch evt := msg.(type) {
		case *childExit:
			if err := b.onChildExit(rctx, evt); err != nil {
				b.stopAll(rctx)
				return err
			}
		case *supSnapshot:
			evt.replyTo.Reply(b.snapshot())
		default:
			rctx.Log().Warnf("supervisor=(%s) dropped unexpected message %T", rctx.Name(), msg)
		}
	}
}

// startAll starts every child in spec order. The first child that cannot
// be started, after retries, fails the whole supervisor.
func (b *supervisorBehavior) startAll(rctx *Context[supervisorEvent]) error {
	for _, spec := range b.spec.children {
		cs := &childState{spec: spec}
		b.children[spec.Name] = cs
		b.order = append(b.order, spec.Name)
		if err := b.startChild(rctx, cs); err != nil {
			return err
		}
	}
	return nil
}

// startChild starts one incarnation of cs, retrying per the supervisor's
// start-retry budget, and wires its exit back into the supervisor mailbox.
func (b *supervisorBehavior) startChild(rctx *Context[supervisorEvent], cs *childState) error {
	var started Linkable
	retrier := retry.NewRetrier(b.spec.startRetries, 50*time.Millisecond, time.Second)
	err := retrier.RunContext(rctx.Context(), func(ctx context.Context) error {
		child, err := cs.spec.Start(ctx, rctx.System())
		if err != nil {
			return err
		}
		started = child
		return nil
	})
	if err != nil {
		return NewErrChildStartFailure(cs.spec.Name, err)
	}

	cs.cell = started.cellRef()
	cs.running = true

	// route the child's exit into the supervisor mailbox; the incarnation
	// id lets the loop discard exits of already-replaced incarnations
	self := rctx.Self()
	name, id := cs.spec.Name, cs.cell.id
	monitorCell(cs.cell, func(_ ID, reason Reason) {
		self.Cast(&childExit{name: name, id: id, reason: reason})
	})

	// a supervisor that dies abnormally takes its children with it; the
	// previous incarnation's watch is dropped so they do not pile up
	// across restarts
	supCell := rctx.cell
	childCell := cs.cell
	if cs.supWatch != uuid.Nil {
		supCell.removeMonitor(cs.supWatch)
	}
	cs.supWatch = monitorCell(supCell, func(_ ID, reason Reason) {
		if reason.IsAbnormal() {
			childCell.exitLinked(supCell, reason)
		}
	})
	return nil
}

// onChildExit applies the restart strategy to one child exit. It returns a
// non-nil error, escalating to the parent, when the restart budget is
// exhausted or a restart fails.
func (b *supervisorBehavior) onChildExit(rctx *Context[supervisorEvent], evt *childExit) error {
	cs, ok := b.children[evt.name]
	if !ok || cs.cell == nil || cs.cell.id != evt.id {
		// exit of a replaced incarnation, already handled
		return nil
	}
	cs.running = false

	if evt.reason.IsNormal() {
		cs.completed = true
		rctx.Log().Debugf("supervisor=(%s) child=(%s) completed", rctx.Name(), evt.name)
		return nil
	}
	rctx.Log().Warnf("supervisor=(%s) child=(%s) terminated: %s", rctx.Name(), evt.name, evt.reason)

	if !b.withinBudget() {
		return NewErrTooManyRestarts(evt.name)
	}

	switch b.spec.strategy {
	case OneForAll:
		return b.restartFrom(rctx, 0)
	case RestForOne:
		return b.restartFrom(rctx, b.indexOf(evt.name))
	default:
		return b.restart(rctx, cs)
	}
}

// withinBudget counts one restart against the supervisor's time window and
// reports whether the budget still holds. The window restarts from the
// first failure after a quiet period.
func (b *supervisorBehavior) withinBudget() bool {
	now := time.Now()
	if b.restarts == 0 || now.Sub(b.windowStart) > b.spec.window {
		b.windowStart = now
		b.restarts = 0
	}
	b.restarts++
	return b.restarts <= b.spec.maxRestarts
}

// restart restarts a single child.
func (b *supervisorBehavior) restart(rctx *Context[supervisorEvent], cs *childState) error {
	oldID := cs.cell.id
	if err := b.startChild(rctx, cs); err != nil {
		return err
	}
	cs.restarts++
	rctx.System().publishEvent(&TaskRestarted{
		Child: cs.spec.Name,
		OldID: oldID,
		NewID: cs.cell.id,
		At:    time.Now(),
	})
	return nil
}

// restartFrom stops the running children at and after index from, in
// reverse start order, then restarts that whole span in start order.
// Children that had already completed normally stay stopped.
func (b *supervisorBehavior) restartFrom(rctx *Context[supervisorEvent], from int) error {
	if from < 0 {
		return nil
	}
	for i := len(b.order) - 1; i >= from; i-- {
		cs := b.children[b.order[i]]
		if cs.running {
			b.stopChild(rctx, cs)
		}
	}
	for i := from; i < len(b.order); i++ {
		cs := b.children[b.order[i]]
		if cs.cell == nil || cs.completed {
			continue
		}
		if err := b.restart(rctx, cs); err != nil {
			return err
		}
	}
	return nil
}

// stopChild gracefully stops one child within the supervisor's shutdown
// budget.
func (b *supervisorBehavior) stopChild(rctx *Context[supervisorEvent], cs *childState) {
	ctx, cancel := context.WithTimeout(context.Background(), rctx.System().shutdownTimeout)
	defer cancel()
	if err := cs.cell.gracefulStop(ctx); err != nil {
		rctx.Log().Warnf("supervisor=(%s) child=(%s) stop: %v", rctx.Name(), cs.spec.Name, err)
	}
	if cs.supWatch != uuid.Nil {
		rctx.cell.removeMonitor(cs.supWatch)
		cs.supWatch = uuid.Nil
	}
	cs.running = false
}

// stopAll stops every running child in reverse start order.
func (b *supervisorBehavior) stopAll(rctx *Context[supervisorEvent]) {
	for i := len(b.order) - 1; i >= 0; i-- {
		cs := b.children[b.order[i]]
		if cs != nil && cs.running {
			b.stopChild(rctx, cs)
		}
	}
}

func (b *supervisorBehavior) indexOf(name string) int {
	for i, n := range b.order {
		if n == name {
			return i
		}
	}
	return -1
}

func (b *supervisorBehavior) snapshot() []ChildStatus {
	statuses := make([]ChildStatus, 0, len(b.order))
	for _, name := range b.order {
		cs := b.children[name]
		status := ChildStatus{Name: name, Restarts: cs.restarts}
		if cs.cell != nil {
			status.ID = cs.cell.id
			status.State = cs.cell.currentState()
		}
		statuses = append(statuses, status)
	}
	return statuses
}
