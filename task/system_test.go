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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknet-run/tasknet/log"
)

func TestNewSystem(t *testing.T) {
	t.Run("With valid name", func(t *testing.T) {
		sys, err := NewSystem("testSys")
		require.NoError(t, err)
		require.NotNil(t, sys)
		assert.Equal(t, "testSys", sys.Name())
	})
	t.Run("With invalid name", func(t *testing.T) {
		for _, name := range []string{"", "$omeN@me", "-leading", " spaced"} {
			sys, err := NewSystem(name)
			require.ErrorIs(t, err, ErrInvalidSystemName)
			assert.Nil(t, sys)
		}
	})
}

func TestSystemLifecycle(t *testing.T) {
	t.Run("With start and stop", func(t *testing.T) {
		sys, err := NewSystem("testSys", WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		assert.False(t, sys.Running())
		assert.Zero(t, sys.Uptime())

		require.NoError(t, sys.Start(context.TODO()))
		assert.True(t, sys.Running())

		require.NoError(t, sys.Stop(context.TODO()))
		assert.False(t, sys.Running())
	})
	t.Run("With double start", func(t *testing.T) {
		sys, err := NewSystem("testSys", WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		require.NoError(t, sys.Start(context.TODO()))
		require.ErrorIs(t, sys.Start(context.TODO()), ErrSystemAlreadyStarted)
		require.NoError(t, sys.Stop(context.TODO()))
	})
	t.Run("With stop before start", func(t *testing.T) {
		sys, err := NewSystem("testSys", WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		require.ErrorIs(t, sys.Stop(context.TODO()), ErrSystemNotStarted)
	})
	t.Run("With stop terminating the running tasks", func(t *testing.T) {
		sys, err := NewSystem("testSys", WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		require.NoError(t, sys.Start(context.TODO()))

		handles := make([]*Handle[string], 0, 5)
		for i := 0; i < 5; i++ {
			handles = append(handles, spawnDrain(t, sys))
		}
		require.Equal(t, 5, sys.NumTasks())

		require.NoError(t, sys.Stop(context.TODO()))
		for _, handle := range handles {
			reason, ok := handle.Reason()
			require.True(t, ok)
			assert.True(t, reason.IsNormal())
		}
		assert.Equal(t, 0, sys.NumTasks())
	})
}

func TestSystemEvents(t *testing.T) {
	t.Run("With lifecycle events published", func(t *testing.T) {
		sys := newTestSystem(t)
		sub, err := sys.Subscribe(TopicEvents)
		require.NoError(t, err)

		handle := spawnIdle(t, sys, WithName[string]("observed"))
		require.NoError(t, handle.Shutdown(context.TODO()))
		join(t, handle)

		var started, terminated bool
		require.Eventually(t, func() bool {
			for msg := range sub.Iterator() {
				switch evt := msg.Payload().(type) {
				case *TaskStarted:
					started = started || evt.Name == "observed"
				case *TaskTerminated:
					if evt.Name == "observed" {
						terminated = true
						assert.True(t, evt.Reason.IsNormal())
					}
				}
			}
			return started && terminated
		}, time.Second, 10*time.Millisecond)
	})
	t.Run("With subscribe on a stopped system", func(t *testing.T) {
		sys, err := NewSystem("testSys", WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		sub, err := sys.Subscribe(TopicEvents)
		require.ErrorIs(t, err, ErrSystemNotStarted)
		assert.Nil(t, sub)
	})
	t.Run("With unsubscribe", func(t *testing.T) {
		sys := newTestSystem(t)
		sub, err := sys.Subscribe(TopicEvents)
		require.NoError(t, err)
		sys.Unsubscribe(sub)

		handle := spawnIdle(t, sys)
		require.NoError(t, handle.Shutdown(context.TODO()))
		join(t, handle)

		time.Sleep(50 * time.Millisecond)
		_, open := <-sub.Iterator()
		assert.False(t, open)
	})
}
