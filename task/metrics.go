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

// Metrics is a point-in-time snapshot of a task's runtime counters.
// MailboxSize and ProcessedCount are best-effort under concurrency.
type Metrics struct {
	// ID is the task identifier.
	ID ID
	// Name is the task's label, empty when none was set at spawn.
	Name string
	// State is the lifecycle state at snapshot time.
	State State
	// MailboxSize is the number of messages waiting in the mailbox.
	MailboxSize int64
	// ProcessedCount is the number of messages the task has received so far.
	ProcessedCount int64
	// SentCount is the number of messages the task has sent through its
	// Context. Sends made directly through a Ref are not attributed.
	SentCount int64
	// Uptime is the time elapsed since the task was spawned.
	Uptime time.Duration
}
