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

// Package registry maps stable names to task references. Entries follow the
// task lifecycle: a registered task that terminates is removed
// automatically, so a successful lookup never returns a reference that was
// dead at registration time.
package registry

import (
	"errors"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/tasknet-run/tasknet/task"
)

var (
	// ErrInvalidName is returned when a name contains invalid characters.
	// A valid name starts with an alphanumeric character followed by
	// alphanumerics, '-', '_' or '.'.
	ErrInvalidName = errors.New("invalid registry name")

	// ErrNameTaken is returned when the name is already bound to a live task.
	ErrNameTaken = errors.New("name is already registered")

	// ErrDeadTask is returned when registering a reference to a task that
	// has already terminated.
	ErrDeadTask = errors.New("task is not alive")
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-_.]*$`)

const shardCount = 32

type entry[M any] struct {
	ref   task.Ref[M]
	watch uuid.UUID
}

type shard[M any] struct {
	mu      sync.RWMutex
	entries map[string]entry[M]
}

// Registry is a sharded name table for tasks with message type M. All
// methods are safe for concurrent use; names hash to shards so unrelated
// registrations do not contend.
type Registry[M any] struct {
	sys    *task.System
	shards [shardCount]*shard[M]
}

// New creates a Registry bound to the given system.
func New[M any](sys *task.System) *Registry[M] {
	r := &Registry[M]{sys: sys}
	for i := range r.shards {
		r.shards[i] = &shard[M]{entries: make(map[string]entry[M])}
	}
	return r
}

func (r *Registry[M]) shardFor(name string) *shard[M] {
	return r.shards[xxh3.HashString(name)%shardCount]
}

// Register binds name to ref. The binding is exclusive: a second Register
// with the same name fails with ErrNameTaken until the first task
// terminates or is deregistered. Registering a terminated task fails with
// ErrDeadTask.
func (r *Registry[M]) Register(name string, ref task.Ref[M]) error {
	if !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	if !ref.IsAlive() {
		return ErrDeadTask
	}

	s := r.shardFor(name)
	s.mu.Lock()
	if _, taken := s.entries[name]; taken {
		s.mu.Unlock()
		return ErrNameTaken
	}
	// reserve the slot before monitoring so the unregister callback always
	// finds the entry it is meant to clear
	s.entries[name] = entry[M]{ref: ref}
	s.mu.Unlock()

	id := ref.ID()
	watch := r.sys.Monitor(ref, func(_ task.ID, _ task.Reason) {
		r.deregisterIf(name, id)
	})
	if !r.attachWatch(name, id, watch) {
		// the slot was deregistered or rebound while the watch was being
		// installed; cancel it so it does not linger on the cell
		r.sys.Demonitor(ref, watch)
	}
	return nil
}

// attachWatch stores watch on the entry for name while it still points at
// the task with the given id, reporting whether it did.
func (r *Registry[M]) attachWatch(name string, id task.ID, watch uuid.UUID) bool {
	s := r.shardFor(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok || e.ref.ID() != id {
		return false
	}
	e.watch = watch
	s.entries[name] = e
	return true
}

// Deregister removes the binding for name, reporting whether one existed.
// The task itself is unaffected.
func (r *Registry[M]) Deregister(name string) bool {
	s := r.shardFor(name)
	s.mu.Lock()
	e, ok := s.entries[name]
	if ok {
		delete(s.entries, name)
	}
	s.mu.Unlock()
	if ok && e.watch != uuid.Nil {
		r.sys.Demonitor(e.ref, e.watch)
	}
	return ok
}

// deregisterIf removes the binding for name only while it still points at
// the task with the given id, so a name re-registered to a fresh task is
// never clobbered by the old task's termination.
func (r *Registry[M]) deregisterIf(name string, id task.ID) {
	s := r.shardFor(name)
	s.mu.Lock()
	if e, ok := s.entries[name]; ok && e.ref.ID() == id {
		delete(s.entries, name)
	}
	s.mu.Unlock()
}

// Lookup returns the reference bound to name.
func (r *Registry[M]) Lookup(name string) (task.Ref[M], bool) {
	s := r.shardFor(name)
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	return e.ref, ok
}

// Names returns all currently bound names, in no particular order.
func (r *Registry[M]) Names() []string {
	names := make([]string, 0)
	for _, s := range r.shards {
		s.mu.RLock()
		for name := range s.entries {
			names = append(names, name)
		}
		s.mu.RUnlock()
	}
	return names
}

// Len returns the number of bound names.
func (r *Registry[M]) Len() int {
	total := 0
	for _, s := range r.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}
