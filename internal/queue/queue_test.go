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

package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	t.Run("With FIFO ordering", func(t *testing.T) {
		q := New[int]()
		assert.True(t, q.IsEmpty())

		for i := 0; i < 100; i++ {
			require.True(t, q.Push(i))
		}
		assert.Equal(t, 100, q.Len())

		for i := 0; i < 100; i++ {
			v, ok := q.Pop()
			require.True(t, ok)
			assert.Equal(t, i, v)
		}
		assert.True(t, q.IsEmpty())
	})
	t.Run("With Pop on empty queue", func(t *testing.T) {
		q := New[string]()
		v, ok := q.Pop()
		assert.False(t, ok)
		assert.Empty(t, v)
	})
	t.Run("With growth past the initial capacity", func(t *testing.T) {
		q := New[int]()
		// interleave to move head and tail around the ring
		for i := 0; i < 8; i++ {
			require.True(t, q.Push(i))
		}
		for i := 0; i < 4; i++ {
			_, ok := q.Pop()
			require.True(t, ok)
		}
		for i := 8; i < 64; i++ {
			require.True(t, q.Push(i))
		}

		assert.Equal(t, 60, q.Len())
		for i := 4; i < 64; i++ {
			v, ok := q.Pop()
			require.True(t, ok)
			assert.Equal(t, i, v)
		}
	})
	t.Run("With Close", func(t *testing.T) {
		q := New[int]()
		require.True(t, q.Push(1))

		q.Close()
		assert.True(t, q.IsClosed())
		assert.True(t, q.IsEmpty())

		// entries are discarded and new pushes are dropped
		assert.False(t, q.Push(2))
		_, ok := q.Pop()
		assert.False(t, ok)
	})
	t.Run("With concurrent pushers", func(t *testing.T) {
		q := New[int]()

		const pushers = 8
		const perPusher = 200

		var wg sync.WaitGroup
		wg.Add(pushers)
		for p := 0; p < pushers; p++ {
			go func() {
				defer wg.Done()
				for i := 0; i < perPusher; i++ {
					q.Push(i)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, pushers*perPusher, q.Len())
	})
}
