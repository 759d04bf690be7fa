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

import "fmt"

// ReasonKind enumerates the possible causes of a task termination.
type ReasonKind int

const (
	// NormalReason indicates the task's behavior returned without failure.
	NormalReason ReasonKind = iota
	// KilledReason indicates the task was aborted via Kill, bypassing its
	// terminate hook.
	KilledReason
	// PanickedReason indicates the task's behavior panicked or returned an
	// error. The failure never crashes the host process; it is converted into
	// this reason at the task boundary.
	PanickedReason
	// TimeoutReason indicates a graceful shutdown exceeded its time budget.
	TimeoutReason
)

// String returns the string representation of the reason kind.
func (k ReasonKind) String() string {
	switch k {
	case NormalReason:
		return "Normal"
	case KilledReason:
		return "Killed"
	case PanickedReason:
		return "Panicked"
	case TimeoutReason:
		return "Timeout"
	default:
		return ""
	}
}

// Reason describes why a task terminated. It is both the terminal state
// recorded on the task and the payload delivered to links, monitors and
// supervisors observing the termination.
type Reason struct {
	kind ReasonKind
	err  error
}

var (
	// ReasonNormal is the reason recorded when a task completes without failure.
	ReasonNormal = Reason{kind: NormalReason}
	// ReasonKilled is the reason recorded when a task is killed.
	ReasonKilled = Reason{kind: KilledReason}
	// ReasonTimeout is the reason recorded when a graceful shutdown times out.
	ReasonTimeout = Reason{kind: TimeoutReason}
)

// NewPanickedReason creates a Reason carrying the failure detail of a caught
// panic or a behavior error.
func NewPanickedReason(err error) Reason {
	return Reason{kind: PanickedReason, err: err}
}

// NewKilledReason creates a Killed reason carrying the cause of the kill,
// typically the exit of a linked task.
func NewKilledReason(err error) Reason {
	return Reason{kind: KilledReason, err: err}
}

// Kind returns the reason kind.
func (r Reason) Kind() ReasonKind {
	return r.kind
}

// Err returns the failure detail carried by the reason, nil for plain
// Normal, Killed or Timeout terminations.
func (r Reason) Err() error {
	return r.err
}

// IsNormal reports whether the termination was a normal completion.
func (r Reason) IsNormal() bool {
	return r.kind == NormalReason
}

// IsAbnormal reports whether the termination should be treated as a failure
// by supervisors and peers.
func (r Reason) IsAbnormal() bool {
	return r.kind != NormalReason
}

// String returns a human readable description of the reason.
func (r Reason) String() string {
	if r.err != nil {
		return fmt.Sprintf("%s(%v)", r.kind, r.err)
	}
	return r.kind.String()
}
