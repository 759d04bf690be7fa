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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawn(t *testing.T) {
	t.Run("With successful spawn", func(t *testing.T) {
		sys := newTestSystem(t)
		handle := spawnDrain(t, sys, WithName[string]("drainer"))
		assert.Equal(t, "drainer", handle.Name())
		assert.True(t, handle.IsAlive())
		assert.Equal(t, StateRunning, handle.State())
		assert.Equal(t, 1, sys.NumTasks())

		require.NoError(t, handle.Shutdown(context.TODO()))
		reason := join(t, handle)
		assert.True(t, reason.IsNormal())
		assert.Equal(t, 0, sys.NumTasks())
	})
	t.Run("With system not started", func(t *testing.T) {
		sys, err := NewSystem("testSys")
		require.NoError(t, err)
		handle, err := Spawn(context.TODO(), sys, Func[string](func(*Context[string]) error { return nil }))
		require.ErrorIs(t, err, ErrSystemNotStarted)
		assert.Nil(t, handle)
	})
	t.Run("With nil behavior", func(t *testing.T) {
		sys := newTestSystem(t)
		handle, err := Spawn[string](context.TODO(), sys, nil)
		require.Error(t, err)
		assert.Nil(t, handle)
	})
	t.Run("With failing initializer", func(t *testing.T) {
		sys := newTestSystem(t)
		initErr := errors.New("no database")
		handle, err := Spawn(context.TODO(), sys, Func[string](func(*Context[string]) error { return nil }),
			WithInit[string](func(context.Context) error { return initErr }),
			WithInitMaxRetries[string](2))
		require.ErrorIs(t, err, ErrInitFailure)
		require.ErrorIs(t, err, initErr)
		assert.Nil(t, handle)
		assert.Equal(t, 0, sys.NumTasks())
	})
	t.Run("With initializer succeeding after retry", func(t *testing.T) {
		sys := newTestSystem(t)
		attempts := 0
		handle, err := Spawn(context.TODO(), sys, Func[string](func(rctx *Context[string]) error {
			_, err := rctx.Receive()
			return err
		}),
			WithInit[string](func(context.Context) error {
				attempts++
				if attempts < 2 {
					return errors.New("not yet")
				}
				return nil
			}),
			WithInitMaxRetries[string](3))
		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
		require.NoError(t, handle.Shutdown(context.TODO()))
	})
}

func TestTell(t *testing.T) {
	t.Run("With ordered delivery from a single sender", func(t *testing.T) {
		sys := newTestSystem(t)
		var (
			mu       sync.Mutex
			received []int
		)
		handle, err := Spawn(context.TODO(), sys, Func[int](func(rctx *Context[int]) error {
			for {
				msg, err := rctx.Receive()
				if err != nil {
					return err
				}
				mu.Lock()
				received = append(received, msg)
				mu.Unlock()
			}
		}))
		require.NoError(t, err)

		for i := 0; i < 100; i++ {
			require.NoError(t, handle.Tell(i))
		}
		require.NoError(t, handle.Shutdown(context.TODO()))
		join(t, handle)

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, received, 100)
		for i, msg := range received {
			assert.Equal(t, i, msg)
		}
	})
	t.Run("With terminated target", func(t *testing.T) {
		sys := newTestSystem(t)
		handle := spawnDrain(t, sys)
		require.NoError(t, handle.Shutdown(context.TODO()))
		join(t, handle)

		err := handle.Tell("late")
		require.ErrorIs(t, err, ErrMailboxClosed)
	})
	t.Run("With terminated target the message becomes a deadletter", func(t *testing.T) {
		sys := newTestSystem(t)
		sub, err := sys.Subscribe(TopicDeadletters)
		require.NoError(t, err)

		handle := spawnDrain(t, sys)
		require.NoError(t, handle.Shutdown(context.TODO()))
		join(t, handle)
		require.Error(t, handle.Tell("late"))

		require.Eventually(t, func() bool {
			for msg := range sub.Iterator() {
				letter, ok := msg.Payload().(*Deadletter)
				if ok && letter.Message == "late" {
					return true
				}
			}
			return false
		}, time.Second, 10*time.Millisecond)
	})
}

func TestReceiveTimeout(t *testing.T) {
	t.Run("With no message within the deadline", func(t *testing.T) {
		sys := newTestSystem(t)
		handle, err := Spawn(context.TODO(), sys, Func[string](func(rctx *Context[string]) error {
			_, err := rctx.ReceiveTimeout(50 * time.Millisecond)
			return err
		}))
		require.NoError(t, err)
		reason := join(t, handle)
		require.Equal(t, PanickedReason, reason.Kind())
		assert.ErrorIs(t, reason.Err(), ErrReceiveTimeout)
	})
	t.Run("With invalid timeout", func(t *testing.T) {
		sys := newTestSystem(t)
		handle, err := Spawn(context.TODO(), sys, Func[string](func(rctx *Context[string]) error {
			_, err := rctx.ReceiveTimeout(0)
			if !errors.Is(err, ErrInvalidTimeout) {
				return errors.New("expected invalid timeout")
			}
			return nil
		}))
		require.NoError(t, err)
		reason := join(t, handle)
		assert.True(t, reason.IsNormal())
	})
}

func TestReceiveMatch(t *testing.T) {
	t.Run("With skipped messages redelivered in order", func(t *testing.T) {
		sys := newTestSystem(t)
		out := make(chan string, 10)
		handle, err := Spawn(context.TODO(), sys, Func[string](func(rctx *Context[string]) error {
			// pull the marker first even though it is sent last
			msg, err := rctx.ReceiveMatch(func(m string) bool { return m == "marker" }, time.Second)
			if err != nil {
				return err
			}
			out <- msg
			// stashed messages come back in arrival order
			for i := 0; i < 3; i++ {
				msg, err := rctx.Receive()
				if err != nil {
					return err
				}
				out <- msg
			}
			return nil
		}))
		require.NoError(t, err)

		require.NoError(t, handle.Tell("a"))
		require.NoError(t, handle.Tell("b"))
		require.NoError(t, handle.Tell("c"))
		require.NoError(t, handle.Tell("marker"))

		reason := join(t, handle)
		require.True(t, reason.IsNormal())
		close(out)
		var got []string
		for msg := range out {
			got = append(got, msg)
		}
		assert.Equal(t, []string{"marker", "a", "b", "c"}, got)
	})
	t.Run("With no match within the deadline the stash is kept", func(t *testing.T) {
		sys := newTestSystem(t)
		out := make(chan string, 10)
		handle, err := Spawn(context.TODO(), sys, Func[string](func(rctx *Context[string]) error {
			_, err := rctx.ReceiveMatch(func(m string) bool { return m == "never" }, 100*time.Millisecond)
			if !errors.Is(err, ErrReceiveTimeout) {
				return errors.New("expected receive timeout")
			}
			msg, err := rctx.Receive()
			if err != nil {
				return err
			}
			out <- msg
			return nil
		}))
		require.NoError(t, err)

		require.NoError(t, handle.Tell("kept"))
		reason := join(t, handle)
		require.True(t, reason.IsNormal())
		assert.Equal(t, "kept", <-out)
	})
}

func TestConcurrentReceivePoisonsMailbox(t *testing.T) {
	sys := newTestSystem(t)
	leaked := make(chan *Context[string], 1)
	handle, err := Spawn(context.TODO(), sys, Func[string](func(rctx *Context[string]) error {
		// leak the receiving side so the test can issue a competing receive
		leaked <- rctx
		for {
			if _, err := rctx.Receive(); err != nil {
				return err
			}
		}
	}))
	require.NoError(t, err)

	rctx := <-leaked
	// let the task block inside its own Receive first
	time.Sleep(50 * time.Millisecond)

	// a receive from a foreign goroutine while one is in flight poisons
	// the mailbox for good
	_, err = rctx.ReceiveTimeout(100 * time.Millisecond)
	require.ErrorIs(t, err, ErrMailboxPoisoned)

	// the in-flight receive still completes; the one after it fails
	require.NoError(t, handle.Tell("unblock"))
	reason := join(t, handle)
	require.Equal(t, PanickedReason, reason.Kind())
	assert.ErrorIs(t, reason.Err(), ErrMailboxPoisoned)
}

func TestKill(t *testing.T) {
	t.Run("With kill the terminate hook is skipped", func(t *testing.T) {
		sys := newTestSystem(t)
		hookRan := &sync.Map{}
		handle := spawnDrain(t, sys, WithTerminateHook[string](func(context.Context, Reason) {
			hookRan.Store("ran", true)
		}))
		handle.Kill()
		reason := join(t, handle)
		assert.Equal(t, KilledReason, reason.Kind())
		_, ran := hookRan.Load("ran")
		assert.False(t, ran)
	})
	t.Run("With kill of a terminated task being a no-op", func(t *testing.T) {
		sys := newTestSystem(t)
		handle := spawnDrain(t, sys)
		require.NoError(t, handle.Shutdown(context.TODO()))
		reason := join(t, handle)
		require.True(t, reason.IsNormal())

		handle.Kill()
		reason, ok := handle.Reason()
		require.True(t, ok)
		assert.True(t, reason.IsNormal())
	})
}

func TestShutdown(t *testing.T) {
	t.Run("With terminate hook", func(t *testing.T) {
		sys := newTestSystem(t)
		hookReason := make(chan Reason, 1)
		handle := spawnDrain(t, sys, WithTerminateHook[string](func(_ context.Context, reason Reason) {
			hookReason <- reason
		}))
		require.NoError(t, handle.Shutdown(context.TODO()))
		reason := join(t, handle)
		assert.True(t, reason.IsNormal())
		assert.True(t, (<-hookReason).IsNormal())
	})
	t.Run("With a custom reason handed to the hook", func(t *testing.T) {
		sys := newTestSystem(t)
		hookReason := make(chan Reason, 1)
		handle := spawnDrain(t, sys, WithTerminateHook[string](func(_ context.Context, reason Reason) {
			hookReason <- reason
		}))
		custom := NewKilledReason(errors.New("maintenance"))
		require.NoError(t, handle.ShutdownWithReason(context.TODO(), custom))
		reason := join(t, handle)
		require.Equal(t, KilledReason, reason.Kind())
		assert.Contains(t, reason.Err().Error(), "maintenance")
		assert.Equal(t, KilledReason, (<-hookReason).Kind())
	})
	t.Run("With overrunning terminate hook the reason is Timeout", func(t *testing.T) {
		sys := newTestSystem(t)
		release := make(chan struct{})
		handle := spawnDrain(t, sys,
			WithTerminateTimeout[string](50*time.Millisecond),
			WithTerminateHook[string](func(ctx context.Context, _ Reason) {
				select {
				case <-release:
				case <-ctx.Done():
				}
			}))
		require.NoError(t, handle.Shutdown(context.TODO()))
		reason := join(t, handle)
		assert.Equal(t, TimeoutReason, reason.Kind())
		close(release)
	})
	t.Run("With unresponsive task the shutdown escalates", func(t *testing.T) {
		sys := newTestSystem(t)
		handle, err := Spawn(context.TODO(), sys, Func[string](func(rctx *Context[string]) error {
			// ignore the mailbox, honor only the context
			<-rctx.Done()
			return nil
		}))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.TODO(), 50*time.Millisecond)
		defer cancel()
		err = handle.Shutdown(ctx)
		require.ErrorIs(t, err, ErrShutdownTimeout)
		reason := join(t, handle)
		assert.Equal(t, TimeoutReason, reason.Kind())
	})
	t.Run("With undelivered messages becoming deadletters", func(t *testing.T) {
		sys := newTestSystem(t)
		sub, err := sys.Subscribe(TopicDeadletters)
		require.NoError(t, err)

		started := make(chan struct{})
		release := make(chan struct{})
		handle, err := Spawn(context.TODO(), sys, Func[string](func(rctx *Context[string]) error {
			close(started)
			// return without draining so the message is left behind
			<-release
			return nil
		}))
		require.NoError(t, err)
		<-started
		require.NoError(t, handle.Tell("undelivered"))
		close(release)
		join(t, handle)

		require.Eventually(t, func() bool {
			for msg := range sub.Iterator() {
				letter, ok := msg.Payload().(*Deadletter)
				if ok && letter.Message == "undelivered" {
					return true
				}
			}
			return false
		}, time.Second, 10*time.Millisecond)
	})
}

func TestPanicIsContained(t *testing.T) {
	t.Run("With panicking behavior", func(t *testing.T) {
		sys := newTestSystem(t)
		handle, err := Spawn(context.TODO(), sys, Func[string](func(*Context[string]) error {
			panic("boom")
		}))
		require.NoError(t, err)
		reason := join(t, handle)
		require.Equal(t, PanickedReason, reason.Kind())
		assert.Contains(t, reason.Err().Error(), "boom")
	})
	t.Run("With behavior returning an error", func(t *testing.T) {
		sys := newTestSystem(t)
		failure := errors.New("bad state")
		handle, err := Spawn(context.TODO(), sys, Func[string](func(*Context[string]) error {
			return failure
		}))
		require.NoError(t, err)
		reason := join(t, handle)
		require.Equal(t, PanickedReason, reason.Kind())
		assert.ErrorIs(t, reason.Err(), failure)
	})
}

func TestMetrics(t *testing.T) {
	sys := newTestSystem(t)
	sink := spawnDrain(t, sys)
	handle, err := Spawn(context.TODO(), sys, Func[int](func(rctx *Context[int]) error {
		for {
			msg, err := rctx.Receive()
			if err != nil {
				return err
			}
			_ = Send(rctx, sink.Ref, "seen")
			if msg == 4 {
				return nil
			}
		}
	}), WithName[int]("counter"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, handle.Tell(i))
	}
	join(t, handle)

	metrics := handle.Metrics()
	assert.Equal(t, "counter", metrics.Name)
	assert.Equal(t, int64(5), metrics.ProcessedCount)
	assert.Equal(t, int64(5), metrics.SentCount)
	assert.Equal(t, StateTerminated, metrics.State)
	assert.Positive(t, metrics.Uptime)

	_, err = sys.Metrics(handle.ID())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
