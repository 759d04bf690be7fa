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

package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tasknet-run/tasknet/log"
	"github.com/tasknet-run/tasknet/task"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/Workiva/go-datastructures/queue.(*Queue).Get"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))
}

func newTestSystem(t *testing.T) *task.System {
	t.Helper()
	sys, err := task.NewSystem("testSys", task.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, sys.Start(context.TODO()))
	t.Cleanup(func() {
		if sys.Running() {
			require.NoError(t, sys.Stop(context.TODO()))
		}
	})
	return sys
}

func spawnWorker(t *testing.T, sys *task.System) *task.Handle[string] {
	t.Helper()
	handle, err := task.Spawn(context.TODO(), sys, task.Func[string](func(rctx *task.Context[string]) error {
		for {
			if _, err := rctx.Receive(); err != nil {
				return err
			}
		}
	}))
	require.NoError(t, err)
	return handle
}

func TestRegister(t *testing.T) {
	t.Run("With successful registration", func(t *testing.T) {
		sys := newTestSystem(t)
		reg := New[string](sys)
		handle := spawnWorker(t, sys)

		require.NoError(t, reg.Register("worker", handle.Ref))
		ref, ok := reg.Lookup("worker")
		require.True(t, ok)
		assert.Equal(t, handle.ID(), ref.ID())
		assert.Equal(t, 1, reg.Len())
		assert.Equal(t, []string{"worker"}, reg.Names())
	})
	t.Run("With name already taken", func(t *testing.T) {
		sys := newTestSystem(t)
		reg := New[string](sys)
		first := spawnWorker(t, sys)
		second := spawnWorker(t, sys)

		require.NoError(t, reg.Register("worker", first.Ref))
		err := reg.Register("worker", second.Ref)
		require.ErrorIs(t, err, ErrNameTaken)

		// the original binding is untouched
		ref, ok := reg.Lookup("worker")
		require.True(t, ok)
		assert.Equal(t, first.ID(), ref.ID())
	})
	t.Run("With invalid name", func(t *testing.T) {
		sys := newTestSystem(t)
		reg := New[string](sys)
		handle := spawnWorker(t, sys)

		for _, name := range []string{"", "-leading", "has space", "$ign"} {
			require.ErrorIs(t, reg.Register(name, handle.Ref), ErrInvalidName)
		}
	})
	t.Run("With terminated task", func(t *testing.T) {
		sys := newTestSystem(t)
		reg := New[string](sys)
		handle := spawnWorker(t, sys)
		require.NoError(t, handle.Shutdown(context.TODO()))
		_, err := handle.Join(context.TODO())
		require.NoError(t, err)

		require.ErrorIs(t, reg.Register("worker", handle.Ref), ErrDeadTask)
		assert.Equal(t, 0, reg.Len())
	})
}

func TestDeregister(t *testing.T) {
	t.Run("With bound name", func(t *testing.T) {
		sys := newTestSystem(t)
		reg := New[string](sys)
		handle := spawnWorker(t, sys)

		require.NoError(t, reg.Register("worker", handle.Ref))
		assert.True(t, reg.Deregister("worker"))
		_, ok := reg.Lookup("worker")
		assert.False(t, ok)

		// the task itself keeps running
		assert.True(t, handle.IsAlive())
	})
	t.Run("With unknown name", func(t *testing.T) {
		sys := newTestSystem(t)
		reg := New[string](sys)
		assert.False(t, reg.Deregister("ghost"))
	})
}

func TestAutoUnregisterOnTermination(t *testing.T) {
	sys := newTestSystem(t)
	reg := New[string](sys)
	handle := spawnWorker(t, sys)

	require.NoError(t, reg.Register("worker", handle.Ref))
	require.NoError(t, handle.Shutdown(context.TODO()))
	_, err := handle.Join(context.TODO())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := reg.Lookup("worker")
		return !ok
	}, time.Second, 10*time.Millisecond)

	// the name is free for a fresh task
	replacement := spawnWorker(t, sys)
	require.Eventually(t, func() bool {
		return reg.Register("worker", replacement.Ref) == nil
	}, time.Second, 10*time.Millisecond)
}

func TestStaleTerminationDoesNotClobberRebinding(t *testing.T) {
	sys := newTestSystem(t)
	reg := New[string](sys)
	old := spawnWorker(t, sys)

	require.NoError(t, reg.Register("worker", old.Ref))
	assert.True(t, reg.Deregister("worker"))

	// rebind before the old task dies
	fresh := spawnWorker(t, sys)
	require.NoError(t, reg.Register("worker", fresh.Ref))

	require.NoError(t, old.Shutdown(context.TODO()))
	_, err := old.Join(context.TODO())
	require.NoError(t, err)

	// the old task's termination must not evict the fresh binding
	time.Sleep(100 * time.Millisecond)
	ref, ok := reg.Lookup("worker")
	require.True(t, ok)
	assert.Equal(t, fresh.ID(), ref.ID())
}

func TestWatchAttachment(t *testing.T) {
	t.Run("With slot gone before the watch attaches", func(t *testing.T) {
		sys := newTestSystem(t)
		reg := New[string](sys)
		handle := spawnWorker(t, sys)

		// a deregister landed in between, so the watch must not be stored
		assert.False(t, reg.attachWatch("worker", handle.ID(), uuid.New()))
	})
	t.Run("With slot rebound before the watch attaches", func(t *testing.T) {
		sys := newTestSystem(t)
		reg := New[string](sys)
		stale := spawnWorker(t, sys)
		fresh := spawnWorker(t, sys)
		require.NoError(t, reg.Register("worker", fresh.Ref))

		assert.False(t, reg.attachWatch("worker", stale.ID(), uuid.New()))

		// the fresh binding is untouched
		ref, ok := reg.Lookup("worker")
		require.True(t, ok)
		assert.Equal(t, fresh.ID(), ref.ID())
	})
	t.Run("With register and deregister racing", func(t *testing.T) {
		sys := newTestSystem(t)
		reg := New[string](sys)
		handle := spawnWorker(t, sys)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = reg.Register("worker", handle.Ref)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				reg.Deregister("worker")
			}
		}()
		wg.Wait()

		// whatever the interleaving, the name can still be cleanly cycled
		reg.Deregister("worker")
		require.NoError(t, reg.Register("worker", handle.Ref))
		assert.Equal(t, 1, reg.Len())
	})
}
