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
	"time"

	"github.com/tasknet-run/tasknet/future"
)

const (
	// DefaultMaxRestarts is the default restart budget per supervision window.
	DefaultMaxRestarts = 3
	// DefaultRestartWindow is the default supervision window.
	DefaultRestartWindow = 30 * time.Second
	// DefaultStartRetries is the default number of attempts to start a child.
	DefaultStartRetries = 1
)

// SupervisorSpec describes one supervisor: its restart strategy, its
// restart budget and its children in start order. Specs are plain data,
// reusable across systems; StartSupervisor or Tree.Start turns one into a
// running supervisor.
type SupervisorSpec struct {
	name         string
	strategy     Strategy
	maxRestarts  int
	window       time.Duration
	startRetries int
	children     []ChildSpec
}

// SupervisorOption configures a SupervisorSpec.
type SupervisorOption func(spec *SupervisorSpec)

// WithStrategy sets the restart strategy. The default is OneForOne.
func WithStrategy(strategy Strategy) SupervisorOption {
	return func(spec *SupervisorSpec) {
		spec.strategy = strategy
	}
}

// WithMaxRestarts sets the restart budget: more than maxRestarts restarts
// within window and the supervisor gives up, stops its remaining children
// and escalates to its own supervisor.
func WithMaxRestarts(maxRestarts int, window time.Duration) SupervisorOption {
	return func(spec *SupervisorSpec) {
		spec.maxRestarts = maxRestarts
		spec.window = window
	}
}

// WithStartRetries sets how many attempts each child start gets before the
// supervisor treats it as failed.
func WithStartRetries(retries int) SupervisorOption {
	return func(spec *SupervisorSpec) {
		spec.startRetries = retries
	}
}

// NewSupervisorSpec creates a SupervisorSpec with the given name.
func NewSupervisorSpec(name string, opts ...SupervisorOption) *SupervisorSpec {
	spec := &SupervisorSpec{
		name:         name,
		strategy:     OneForOne,
		maxRestarts:  DefaultMaxRestarts,
		window:       DefaultRestartWindow,
		startRetries: DefaultStartRetries,
	}
	for _, opt := range opts {
		opt(spec)
	}
	return spec
}

// AddChild appends a child to the spec. Children start in the order they
// were added and stop in reverse order. It returns the spec for chaining.
func (s *SupervisorSpec) AddChild(child ChildSpec) *SupervisorSpec {
	s.children = append(s.children, child)
	return s
}

// AddSupervisor appends a nested supervisor as a child, making the spec a
// subtree: the nested supervisor restarts its own children, and only when
// it exhausts its budget does the failure escalate here.
func (s *SupervisorSpec) AddSupervisor(child *SupervisorSpec) *SupervisorSpec {
	return s.AddChild(ChildSpec{
		Name: child.name,
		Start: func(ctx context.Context, sys *System) (Linkable, error) {
			sup, err := StartSupervisor(ctx, sys, child)
			if err != nil {
				return nil, err
			}
			return sup, nil
		},
	})
}

// Supervisor is a running supervisor. It wraps the supervisor task's
// Handle with typed access to snapshots.
type Supervisor struct {
	spec   *SupervisorSpec
	handle *Handle[supervisorEvent]
}

// enforce compilation error
var _ Linkable = (*Supervisor)(nil)

// StartSupervisor starts the supervisor described by spec along with all
// its children. It returns once every child is running, or fails with
// ErrChildStartFailure when one of them could not be started.
func StartSupervisor(ctx context.Context, sys *System, spec *SupervisorSpec) (*Supervisor, error) {
	behavior := &supervisorBehavior{
		spec:  spec,
		ready: future.NewCompletable[struct{}](),
	}
	handle, err := Spawn[supervisorEvent](ctx, sys, behavior, WithName[supervisorEvent](spec.name))
	if err != nil {
		return nil, err
	}
	if _, err := behavior.ready.Future().Await(ctx); err != nil {
		return nil, err
	}
	return &Supervisor{spec: spec, handle: handle}, nil
}

// Name returns the supervisor's name.
func (s *Supervisor) Name() string {
	return s.spec.name
}

// ID returns the supervisor task's identifier.
func (s *Supervisor) ID() ID {
	return s.handle.ID()
}

// Stop gracefully stops the supervisor: children stop in reverse start
// order, then the supervisor itself terminates.
func (s *Supervisor) Stop(ctx context.Context) error {
	return s.handle.Shutdown(ctx)
}

// Join blocks until the supervisor has terminated; see Handle.Join.
func (s *Supervisor) Join(ctx context.Context) (Reason, error) {
	return s.handle.Join(ctx)
}

// Snapshot returns the status of every child in start order.
func (s *Supervisor) Snapshot(ctx context.Context) ([]ChildStatus, error) {
	return Call(ctx, s.handle.Ref, func(replyTo ReplyTo[[]ChildStatus]) supervisorEvent {
		return &supSnapshot{replyTo: replyTo}
	}, time.Second)
}

func (s *Supervisor) cellRef() *cell {
	return s.handle.cell
}

// EscalationHandler is invoked when the root supervisor of a Tree gives up.
// The default handler logs the failure and leaves the system running.
type EscalationHandler func(reason Reason)

// Tree runs a whole supervision hierarchy rooted at one SupervisorSpec and
// owns the last line of defense: when the root itself terminates
// abnormally, the escalation handler decides what happens, it never takes
// the process down on its own.
type Tree struct {
	sys     *System
	root    *SupervisorSpec
	handler EscalationHandler

	sup *Supervisor
}

// TreeOption configures a Tree.
type TreeOption func(tree *Tree)

// WithEscalationHandler replaces the default root escalation handler.
func WithEscalationHandler(handler EscalationHandler) TreeOption {
	return func(tree *Tree) {
		tree.handler = handler
	}
}

// NewTree creates a Tree over the given root spec.
func NewTree(sys *System, root *SupervisorSpec, opts ...TreeOption) *Tree {
	tree := &Tree{
		sys:  sys,
		root: root,
	}
	for _, opt := range opts {
		opt(tree)
	}
	if tree.handler == nil {
		tree.handler = func(reason Reason) {
			sys.logger().Errorf("supervision tree=(%s) collapsed: %s", root.name, reason)
		}
	}
	return tree
}

// Start starts the whole hierarchy, depth-first, and installs the
// escalation handler on the root.
func (t *Tree) Start(ctx context.Context) error {
	sup, err := StartSupervisor(ctx, t.sys, t.root)
	if err != nil {
		return err
	}
	t.sup = sup
	handler := t.handler
	t.sys.Monitor(sup, func(_ ID, reason Reason) {
		if reason.IsAbnormal() {
			handler(reason)
		}
	})
	return nil
}

// Stop gracefully stops the hierarchy, leaves first.
func (t *Tree) Stop(ctx context.Context) error {
	if t.sup == nil {
		return nil
	}
	return t.sup.Stop(ctx)
}

// Root returns the running root supervisor, nil before Start.
func (t *Tree) Root() *Supervisor {
	return t.sup
}
