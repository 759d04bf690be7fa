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

// ID uniquely identifies a task within a running process. IDs are allocated
// from a monotonic counter at spawn time and are never reused for the
// lifetime of the process.
type ID uint64

// String returns the string representation of the task identifier.
func (id ID) String() string {
	return fmt.Sprintf("task-%d", uint64(id))
}

// State represents the lifecycle state of a task.
type State int32

const (
	// StateStarting indicates the task is being set up and has not begun
	// processing messages yet.
	StateStarting State = iota
	// StateRunning indicates the task's behavior is executing.
	StateRunning
	// StateTerminating indicates a termination has been requested or begun;
	// the mailbox is closed and the terminate hook may be running.
	StateTerminating
	// StateTerminated indicates the task has fully stopped. This is the only
	// state transition observable from outside the task.
	StateTerminated
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return ""
	}
}
