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

package log

import (
	"io"
	golog "log"
)

// Logger is the leveled logging contract used across the runtime. A system
// carries exactly one Logger; packages never log through a global.
type Logger interface {
	// Debug logs a message at debug level.
	Debug(...any)
	// Debugf logs a formatted message at debug level.
	Debugf(string, ...any)
	// Info logs a message at info level.
	Info(...any)
	// Infof logs a formatted message at info level.
	Infof(string, ...any)
	// Warn logs a message at warn level.
	Warn(...any)
	// Warnf logs a formatted message at warn level.
	Warnf(string, ...any)
	// Error logs a message at error level.
	Error(...any)
	// Errorf logs a formatted message at error level.
	Errorf(string, ...any)
	// Fatal logs a message at fatal level and terminates the
	// program with os.Exit(1).
	Fatal(...any)
	// Fatalf logs a formatted message at fatal level and terminates
	// the program with os.Exit(1).
	Fatalf(string, ...any)
	// Panic logs a message at panic level and then panics.
	Panic(...any)
	// Panicf logs a formatted message at panic level and then panics.
	Panicf(string, ...any)
	// LogLevel returns the minimum level the logger emits.
	LogLevel() Level
	// LogOutput returns the writers the logger emits to.
	LogOutput() []io.Writer
	// StdLogger adapts the logger to the standard library's log.Logger.
	StdLogger() *golog.Logger
}
