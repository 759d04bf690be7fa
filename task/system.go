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
	"os"
	"regexp"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/tasknet-run/tasknet/eventstream"
	"github.com/tasknet-run/tasknet/internal/syncmap"
	"github.com/tasknet-run/tasknet/log"
)

var systemNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-_]*$`)

const (
	// DefaultShutdownTimeout is the time budget Stop grants every task for a
	// graceful shutdown before escalating to a kill.
	DefaultShutdownTimeout = 3 * time.Second
	// DefaultHookTimeout is the time budget a terminate hook gets before the
	// task's termination is reported as Timeout.
	DefaultHookTimeout = 3 * time.Second
)

// System owns a flat namespace of running tasks. It hands out task
// identifiers, carries the event stream for lifecycle events and
// deadletters, and runs the delayed-send scheduler. Tasks are spawned into
// a System with Spawn and all terminate, gracefully when possible, when the
// System stops.
//
// A System must be started with Start before any task can be spawned and
// should be stopped with Stop to release its resources.
type System struct {
	name    string
	log     log.Logger
	started *atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	cells  *syncmap.SyncMap[ID, *cell]
	nextID *atomic.Uint64

	events eventstream.Stream
	sched  *scheduler

	shutdownTimeout time.Duration
	hookTimeout     time.Duration

	startedAt time.Time
}

// NewSystem creates a System with the given name. The name must start with
// an alphanumeric character and contain only alphanumerics, '-' or '_'.
func NewSystem(name string, opts ...Option) (*System, error) {
	if !systemNamePattern.MatchString(name) {
		return nil, ErrInvalidSystemName
	}
	sys := &System{
		name:            name,
		log:             log.NewZap(log.ErrorLevel, os.Stderr),
		started:         atomic.NewBool(false),
		cells:           syncmap.New[ID, *cell](),
		nextID:          atomic.NewUint64(0),
		events:          eventstream.New(),
		shutdownTimeout: DefaultShutdownTimeout,
		hookTimeout:     DefaultHookTimeout,
	}
	for _, opt := range opts {
		opt.Apply(sys)
	}
	sys.sched = newScheduler(sys.log)
	return sys, nil
}

// Name returns the system name.
func (s *System) Name() string {
	return s.name
}

// Logger returns the system logger.
func (s *System) Logger() log.Logger {
	return s.log
}

// Running reports whether the system has been started and not yet stopped.
func (s *System) Running() bool {
	return s.started.Load()
}

// NumTasks returns the number of tasks currently alive in the system.
func (s *System) NumTasks() int {
	return s.cells.Len()
}

// Uptime returns the duration since the system started, zero when it is
// not running.
func (s *System) Uptime() time.Duration {
	if !s.started.Load() {
		return 0
	}
	return time.Since(s.startedAt)
}

// Start brings the system online. It is an error to start a system twice.
func (s *System) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrSystemAlreadyStarted
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.startedAt = time.Now()
	if err := s.sched.start(ctx); err != nil {
		s.started.Store(false)
		s.cancel()
		return err
	}
	s.log.Infof("%s started", s.name)
	return nil
}

// Stop takes the system offline: the scheduler stops, every live task is
// shut down gracefully within the system's shutdown timeout (escalating to
// a kill past the deadline) and the event stream closes. Stop returns the
// first shutdown error encountered, if any.
func (s *System) Stop(ctx context.Context) error {
	if !s.started.CompareAndSwap(true, false) {
		return ErrSystemNotStarted
	}
	s.log.Infof("%s stopping...", s.name)
	s.sched.stop(ctx)

	eg, egCtx := errgroup.WithContext(ctx)
	for _, c := range s.cells.Values() {
		c := c
		eg.Go(func() error {
			sctx, cancel := context.WithTimeout(egCtx, s.shutdownTimeout)
			defer cancel()
			return c.gracefulStop(sctx)
		})
	}
	err := eg.Wait()

	s.events.Close()
	s.cancel()
	if err != nil {
		s.log.Errorf("%s stopped with error: %v", s.name, err)
		return err
	}
	s.log.Infof("%s stopped", s.name)
	return nil
}

// Subscribe registers a consumer for the given event stream topics,
// TopicEvents and TopicDeadletters. The returned subscriber's Iterator
// yields the messages published since subscription.
func (s *System) Subscribe(topics ...string) (eventstream.Subscriber, error) {
	if !s.started.Load() {
		return nil, ErrSystemNotStarted
	}
	sub := s.events.AddSubscriber()
	for _, topic := range topics {
		s.events.Subscribe(sub, topic)
	}
	return sub, nil
}

// Unsubscribe removes a subscriber from all topics.
func (s *System) Unsubscribe(sub eventstream.Subscriber) {
	s.events.RemoveSubscriber(sub)
}

// Metrics returns the runtime counters of the task with the given id.
func (s *System) Metrics(id ID) (Metrics, error) {
	c, ok := s.cells.Get(id)
	if !ok {
		return Metrics{}, ErrTaskNotFound
	}
	return c.metricsSnapshot(), nil
}

func (s *System) ensureStarted() error {
	if !s.started.Load() {
		return ErrSystemNotStarted
	}
	return nil
}

func (s *System) baseContext() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *System) logger() log.Logger {
	return s.log
}

func (s *System) nextTaskID() ID {
	return ID(s.nextID.Inc())
}

func (s *System) addCell(c *cell) {
	s.cells.Set(c.id, c)
}

func (s *System) removeCell(c *cell) {
	s.cells.Delete(c.id)
}

func (s *System) publishEvent(event any) {
	s.events.Publish(TopicEvents, event)
}

func (s *System) publishDeadletters(c *cell, leftovers []any) {
	now := time.Now()
	for _, msg := range leftovers {
		s.events.Publish(TopicDeadletters, &Deadletter{
			ID:      c.id,
			Name:    c.name,
			Message: msg,
			At:      now,
		})
	}
}
