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
	"errors"
	"fmt"
)

var (
	// ErrInvalidSystemName is returned when the system name contains invalid characters.
	// A valid name must consist of only alphanumeric characters ([a-zA-Z0-9]), with optional
	// hyphens or underscores that are not leading.
	ErrInvalidSystemName = errors.New("invalid system name, must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")

	// ErrSystemNotStarted indicates that the system has not been started before use.
	ErrSystemNotStarted = errors.New("system has not started yet")

	// ErrSystemAlreadyStarted is returned when attempting to start a system that is already running.
	ErrSystemAlreadyStarted = errors.New("system has already started")

	// ErrMailboxClosed indicates that the target mailbox has been closed because
	// its task terminated. Sends against it are rejected and receives drain out.
	ErrMailboxClosed = errors.New("mailbox is closed")

	// ErrMailboxFull is returned by bounded mailboxes when a send would exceed capacity.
	ErrMailboxFull = errors.New("mailbox is full")

	// ErrMailboxPoisoned indicates that the mailbox consumer slot is unavailable
	// because another receive on the same mailbox is still in flight. Mailboxes
	// are single-consumer; only the owning task may receive from its mailbox.
	ErrMailboxPoisoned = errors.New("mailbox is poisoned")

	// ErrReceiveTimeout indicates that a receive deadline elapsed before a message arrived.
	ErrReceiveTimeout = errors.New("receive timed out")

	// ErrCallTimeout indicates that a call timed out while waiting for a reply.
	ErrCallTimeout = errors.New("call timed out")

	// ErrNoTarget is returned when a call is attempted against a task that is
	// already terminated; nothing is sent.
	ErrNoTarget = errors.New("call target is not alive")

	// ErrDisconnected is returned when a call target terminates after the
	// request was delivered but before any reply was produced.
	ErrDisconnected = errors.New("call target disconnected")

	// ErrShutdownTimeout indicates that a graceful shutdown exceeded its time budget.
	ErrShutdownTimeout = errors.New("shutdown timed out")

	// ErrTaskNotFound indicates that the referenced task is unknown to the system.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInitFailure is returned when a behavior's Init hook fails during spawn.
	ErrInitFailure = errors.New("init failed")

	// ErrSchedulerNotStarted is returned when attempting to schedule a delayed
	// send before the system scheduler has started.
	ErrSchedulerNotStarted = errors.New("scheduler has not started")

	// ErrTooManyRestarts indicates that a supervision node exhausted its restart
	// budget within the configured window and failed permanently.
	ErrTooManyRestarts = errors.New("too many restarts")

	// ErrChildStartFailure indicates that a supervised child could not be
	// (re)started even after the configured retry attempts.
	ErrChildStartFailure = errors.New("child start failed")

	// ErrInvalidTimeout is returned when a timeout value is less than or equal to zero.
	ErrInvalidTimeout = errors.New("invalid timeout")
)

// NewErrInitFailure wraps a base error with ErrInitFailure for additional context.
func NewErrInitFailure(err error) error {
	return errors.Join(ErrInitFailure, err)
}

// NewErrTooManyRestarts formats an ErrTooManyRestarts for the given child name.
func NewErrTooManyRestarts(childName string) error {
	return fmt.Errorf("child=(%s) %w", childName, ErrTooManyRestarts)
}

// NewErrChildStartFailure formats an ErrChildStartFailure for the given child name.
func NewErrChildStartFailure(childName string, err error) error {
	return fmt.Errorf("child=(%s) %w", childName, errors.Join(ErrChildStartFailure, err))
}
