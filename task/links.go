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

import "github.com/google/uuid"

// Link establishes a bidirectional link between two tasks: when either
// terminates abnormally (Killed, Panicked or Timeout) the other is killed,
// and the kill propagates through its own links in turn. Normal termination
// only dissolves the link. Linking a task to itself is a no-op; linking is
// idempotent.
//
// Linking to an already-terminated task behaves as if the link had existed
// at termination time: an abnormal exit is delivered to the surviving side
// immediately.
func (s *System) Link(a, b Linkable) {
	if a == nil || b == nil {
		return
	}
	linkCells(a.cellRef(), b.cellRef())
}

// LinkOneWay links dependent to watched in one direction only: an abnormal
// termination of watched kills dependent, while dependent's termination
// leaves watched untouched. As with Link, a watched task that already
// terminated abnormally delivers the exit immediately. Unlink removes
// one-way links too.
func (s *System) LinkOneWay(watched, dependent Linkable) {
	if watched == nil || dependent == nil {
		return
	}
	w, d := watched.cellRef(), dependent.cellRef()
	if w == d {
		return
	}
	if !w.addLink(d) {
		if reason, ok := w.finalReason(); ok && reason.IsAbnormal() {
			d.exitLinked(w, reason)
		}
	}
}

// Unlink removes the link between two tasks, if any. Exits already in
// flight are not recalled.
func (s *System) Unlink(a, b Linkable) {
	if a == nil || b == nil {
		return
	}
	unlinkCells(a.cellRef(), b.cellRef())
}

// Monitor watches target for termination without linking fates: when the
// target terminates, for any reason, fn fires exactly once on a dedicated
// goroutine with the target's id and reason. Monitoring an
// already-terminated task fires fn immediately with the published reason.
// The returned reference cancels the watch via Demonitor; it is uuid.Nil
// when the callback has already fired.
func (s *System) Monitor(target Linkable, fn MonitorFunc) uuid.UUID {
	if target == nil || fn == nil {
		return uuid.Nil
	}
	return monitorCell(target.cellRef(), fn)
}

// Demonitor cancels a watch established by Monitor. Canceling with
// uuid.Nil or after the callback fired is a no-op.
func (s *System) Demonitor(target Linkable, ref uuid.UUID) {
	if target == nil || ref == uuid.Nil {
		return
	}
	target.cellRef().removeMonitor(ref)
}

func linkCells(a, b *cell) {
	if a == b {
		return
	}
	okA := a.addLink(b)
	okB := b.addLink(a)
	switch {
	case okA && okB:
		return
	case okA:
		// b terminated before the link landed; deliver its exit now
		a.removeLink(b)
		if reason, ok := b.finalReason(); ok && reason.IsAbnormal() {
			a.exitLinked(b, reason)
		}
	case okB:
		b.removeLink(a)
		if reason, ok := a.finalReason(); ok && reason.IsAbnormal() {
			b.exitLinked(a, reason)
		}
	}
}

func unlinkCells(a, b *cell) {
	a.removeLink(b)
	b.removeLink(a)
}

func monitorCell(c *cell, fn MonitorFunc) uuid.UUID {
	ref, ok := c.addMonitor(fn)
	if !ok {
		reason, _ := c.finalReason()
		go fn(c.id, reason)
		return uuid.Nil
	}
	return ref
}
