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

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tasknet-run/tasknet/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/Workiva/go-datastructures/queue.(*Queue).Get"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))
}

// newTestSystem starts a system that stops with the test.
func newTestSystem(t *testing.T) *System {
	t.Helper()
	sys, err := NewSystem("testSys", WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, sys.Start(context.TODO()))
	t.Cleanup(func() {
		if sys.Running() {
			require.NoError(t, sys.Stop(context.TODO()))
		}
	})
	return sys
}

// echoRequest is the request message used by call tests.
type echoRequest struct {
	payload string
	replyTo ReplyTo[string]
}

// spawnEcho spawns a task replying to echoRequest messages until its
// mailbox closes.
func spawnEcho(t *testing.T, sys *System, opts ...SpawnOption[*echoRequest]) *Handle[*echoRequest] {
	t.Helper()
	handle, err := Spawn(context.TODO(), sys, Func[*echoRequest](func(rctx *Context[*echoRequest]) error {
		for {
			msg, err := rctx.Receive()
			if err != nil {
				return err
			}
			msg.replyTo.Reply(msg.payload)
		}
	}), opts...)
	require.NoError(t, err)
	require.NotNil(t, handle)
	return handle
}

// spawnDrain spawns a task that receives and discards messages until its
// mailbox closes.
func spawnDrain(t *testing.T, sys *System, opts ...SpawnOption[string]) *Handle[string] {
	t.Helper()
	handle, err := Spawn(context.TODO(), sys, Func[string](func(rctx *Context[string]) error {
		for {
			if _, err := rctx.Receive(); err != nil {
				return err
			}
		}
	}), opts...)
	require.NoError(t, err)
	require.NotNil(t, handle)
	return handle
}

// spawnIdle spawns a task that waits for its context to end, receiving
// nothing. It terminates normally on shutdown.
func spawnIdle(t *testing.T, sys *System, opts ...SpawnOption[string]) *Handle[string] {
	t.Helper()
	handle, err := Spawn(context.TODO(), sys, Func[string](func(rctx *Context[string]) error {
		_, err := rctx.Receive()
		if err != nil {
			return err
		}
		return nil
	}), opts...)
	require.NoError(t, err)
	require.NotNil(t, handle)
	return handle
}

// join waits for a task to fully terminate and returns its reason.
func join[M any](t *testing.T, handle *Handle[M]) Reason {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.TODO(), 3*time.Second)
	defer cancel()
	reason, err := handle.Join(ctx)
	require.NoError(t, err)
	return reason
}
