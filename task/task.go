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
	"fmt"
	"time"

	"github.com/flowchartsman/retry"
)

// Behavior is the user-supplied body of a task. Run executes on the task's
// own goroutine and owns the receiving end of the mailbox: it calls Receive
// and its variants on the Context to pull messages, in any control flow it
// likes, until it decides to return.
//
// Returning nil terminates the task with reason Normal. Returning an error
// terminates it with reason Panicked carrying that error; an actual panic
// inside Run is recovered at the task boundary and treated the same way,
// it never crashes the host process.
//
// During a graceful shutdown the mailbox closes and Receive returns
// ErrMailboxClosed; a behavior that returns that error at that point
// terminates with reason Normal.
type Behavior[M any] interface {
	Run(rctx *Context[M]) error
}

// Func adapts an ordinary function to the Behavior interface.
type Func[M any] func(rctx *Context[M]) error

// enforce compilation error
var _ Behavior[any] = Func[any](nil)

// Run executes the function.
func (f Func[M]) Run(rctx *Context[M]) error {
	return f(rctx)
}

// InitFunc runs synchronously inside Spawn, before the task goroutine
// starts and before the spawn returns. A failing InitFunc aborts the spawn.
type InitFunc func(ctx context.Context) error

// TerminateHook runs on the task's goroutine after its behavior has
// returned, for any reason except a kill. The hook must honor ctx: past the
// hook time budget the context is canceled, the hook is abandoned and the
// termination is reported with reason Timeout.
type TerminateHook func(ctx context.Context, reason Reason)

type spawnConfig[M any] struct {
	name           string
	mailbox        Mailbox[M]
	init           InitFunc
	initMaxRetries int
	hook           TerminateHook
	hookTimeout    time.Duration
	linkTo         []Linkable
}

// SpawnOption is the interface that applies an option to a spawn.
type SpawnOption[M any] interface {
	apply(cfg *spawnConfig[M])
}

type spawnOption[M any] func(cfg *spawnConfig[M])

func (f spawnOption[M]) apply(cfg *spawnConfig[M]) {
	f(cfg)
}

// WithName labels the task. The label shows up in logs, metrics and
// deadletters; it carries no uniqueness guarantee, use the registry for
// name-based lookup.
func WithName[M any](name string) SpawnOption[M] {
	return spawnOption[M](func(cfg *spawnConfig[M]) {
		cfg.name = name
	})
}

// WithMailbox replaces the default unbounded mailbox.
func WithMailbox[M any](mailbox Mailbox[M]) SpawnOption[M] {
	return spawnOption[M](func(cfg *spawnConfig[M]) {
		cfg.mailbox = mailbox
	})
}

// WithInit installs an initializer that must succeed before the task starts.
func WithInit[M any](init InitFunc) SpawnOption[M] {
	return spawnOption[M](func(cfg *spawnConfig[M]) {
		cfg.init = init
	})
}

// WithInitMaxRetries sets how many times a failing initializer is retried
// before the spawn is aborted. The default is a single attempt.
func WithInitMaxRetries[M any](maxRetries int) SpawnOption[M] {
	return spawnOption[M](func(cfg *spawnConfig[M]) {
		cfg.initMaxRetries = maxRetries
	})
}

// WithTerminateHook installs a cleanup hook run after the behavior returns.
func WithTerminateHook[M any](hook TerminateHook) SpawnOption[M] {
	return spawnOption[M](func(cfg *spawnConfig[M]) {
		cfg.hook = hook
	})
}

// WithTerminateTimeout overrides the system's default terminate hook budget
// for this task.
func WithTerminateTimeout[M any](timeout time.Duration) SpawnOption[M] {
	return spawnOption[M](func(cfg *spawnConfig[M]) {
		cfg.hookTimeout = timeout
	})
}

// WithLinkTo links the new task to the given tasks atomically with the
// spawn, so there is no window where one side dies unobserved.
func WithLinkTo[M any](peers ...Linkable) SpawnOption[M] {
	return spawnOption[M](func(cfg *spawnConfig[M]) {
		cfg.linkTo = append(cfg.linkTo, peers...)
	})
}

// Spawn starts a new task running the given behavior on its own goroutine
// and returns the owner Handle. The spawn is synchronous up to the point
// the task is running: when an initializer is configured it has succeeded,
// the task is registered in the system and requested links are in place
// before Spawn returns.
func Spawn[M any](ctx context.Context, sys *System, behavior Behavior[M], opts ...SpawnOption[M]) (*Handle[M], error) {
	if sys == nil {
		return nil, ErrSystemNotStarted
	}
	if err := sys.ensureStarted(); err != nil {
		return nil, err
	}
	if behavior == nil {
		return nil, errors.New("behavior is required")
	}

	cfg := &spawnConfig[M]{
		initMaxRetries: 1,
		hookTimeout:    sys.hookTimeout,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	mailbox := cfg.mailbox
	if mailbox == nil {
		mailbox = NewUnboundedMailbox[M]()
	}

	c := newCell(sys, sys.nextTaskID(), cfg.name, cfg.hookTimeout)
	if cfg.hook != nil {
		c.hook = cfg.hook
	}
	c.disposer = func() []any {
		leftovers := mailbox.Dispose()
		out := make([]any, len(leftovers))
		for i, msg := range leftovers {
			out[i] = msg
		}
		return out
	}
	c.mailboxLen = mailbox.Len

	if cfg.init != nil {
		retrier := retry.NewRetrier(cfg.initMaxRetries, 100*time.Millisecond, time.Second)
		if err := retrier.RunContext(ctx, cfg.init); err != nil {
			c.cancel()
			return nil, NewErrInitFailure(err)
		}
	}

	sys.addCell(c)
	c.setCurrentState(StateRunning)
	for _, peer := range cfg.linkTo {
		linkCells(c, peer.cellRef())
	}
	sys.publishEvent(&TaskStarted{ID: c.id, Name: c.name, At: c.startedAt})
	sys.logger().Debugf("task=(%s) name=(%s) started", c.id, c.name)

	go runTask[M](c, mailbox, behavior)

	return &Handle[M]{Ref: Ref[M]{cell: c, mailbox: mailbox}}, nil
}

// runTask drives a task from behavior entry to full termination. It is the
// only writer of the task's exit path: the behavior result, the kill flag
// and the shutdown flag are folded into a single termination reason here.
func runTask[M any](c *cell, mailbox Mailbox[M], behavior Behavior[M]) {
	rctx := &Context[M]{cell: c, mailbox: mailbox}
	err := runProtected(func() error {
		return behavior.Run(rctx)
	})

	var reason Reason
	switch {
	case c.killed.Load():
		// actual reason was recorded by the kill; this value is discarded
		reason = ReasonKilled
	case err == nil:
		reason = ReasonNormal
	case c.closing.Load() && errors.Is(err, ErrMailboxClosed):
		// cooperative shutdown surfaced through Receive
		reason = ReasonNormal
	default:
		reason = NewPanickedReason(err)
	}
	c.finish(reason)
}

func runProtected(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			if recovered, ok := v.(error); ok {
				err = fmt.Errorf("panic: %w", recovered)
				return
			}
			err = fmt.Errorf("panic: %v", v)
		}
	}()
	return fn()
}
