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

const (
	// TopicEvents is the event stream topic carrying task lifecycle events:
	// TaskStarted, TaskTerminated, TaskRestarted.
	TopicEvents = "tasknet.events"
	// TopicDeadletters is the event stream topic carrying Deadletter entries
	// for messages that could not be delivered.
	TopicDeadletters = "tasknet.deadletters"
)

// TaskStarted is published on TopicEvents when a task has been spawned and
// its initializer, if any, has succeeded.
type TaskStarted struct {
	ID   ID
	Name string
	At   time.Time
}

// TaskTerminated is published on TopicEvents when a task has fully
// terminated and its reason has been published.
type TaskTerminated struct {
	ID     ID
	Name   string
	Reason Reason
	At     time.Time
}

// TaskRestarted is published on TopicEvents when a supervisor restarts a
// child. OldID identifies the terminated incarnation, NewID the fresh one.
type TaskRestarted struct {
	Child string
	OldID ID
	NewID ID
	At    time.Time
}

// Deadletter is published on TopicDeadletters for every message that could
// not be delivered to, or was left undelivered by, a task.
type Deadletter struct {
	// ID identifies the task whose mailbox the message was bound for.
	ID ID
	// Name is that task's label, empty when none was set.
	Name string
	// Message is the undelivered payload.
	Message any
	// At is the time the message was declared undeliverable.
	At time.Time
}
