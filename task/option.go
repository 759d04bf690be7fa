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
	"time"

	"github.com/tasknet-run/tasknet/log"
)

// Option is the interface that applies a configuration option to a System.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(sys *System)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(sys *System)

// Apply applies the options to the system.
func (f OptionFunc) Apply(sys *System) {
	f(sys)
}

// WithLogger sets the system logger.
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(sys *System) {
		sys.log = logger
	})
}

// WithShutdownTimeout sets the time budget Stop grants every task for a
// graceful shutdown before escalating to a kill.
func WithShutdownTimeout(timeout time.Duration) Option {
	return OptionFunc(func(sys *System) {
		sys.shutdownTimeout = timeout
	})
}

// WithHookTimeout sets the default time budget for terminate hooks.
// Individual tasks can override it at spawn time.
func WithHookTimeout(timeout time.Duration) Option {
	return OptionFunc(func(sys *System) {
		sys.hookTimeout = timeout
	})
}
