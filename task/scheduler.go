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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	"github.com/tasknet-run/tasknet/log"
)

// scheduler delivers messages to tasks in the future. It wraps a quartz
// scheduler owned by the System and started/stopped with it.
type scheduler struct {
	mu              sync.Mutex
	quartzScheduler quartz.Scheduler
	started         *atomic.Bool
	logger          log.Logger
}

func newScheduler(logger log.Logger) *scheduler {
	// quartz logger off: scheduling outcomes surface through deadletters
	quartzScheduler, _ := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))
	return &scheduler{
		quartzScheduler: quartzScheduler,
		started:         atomic.NewBool(false),
		logger:          logger,
	}
}

func (x *scheduler) start(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.quartzScheduler.Start(ctx)
	x.started.Store(x.quartzScheduler.IsStarted())
	return nil
}

func (x *scheduler) stop(ctx context.Context) {
	if !x.started.Load() {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	_ = x.quartzScheduler.Clear()
	x.quartzScheduler.Stop()
	x.started.Store(x.quartzScheduler.IsStarted())

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	x.quartzScheduler.Wait(ctx)
}

func (x *scheduler) scheduleOnce(fn func(), delay time.Duration) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.started.Load() {
		return "", ErrSchedulerNotStarted
	}
	key := uuid.NewString()
	detail := quartz.NewJobDetail(job.NewFunctionJob[bool](func(context.Context) (bool, error) {
		fn()
		return true, nil
	}), quartz.NewJobKey(key))
	if err := x.quartzScheduler.ScheduleJob(detail, quartz.NewRunOnceTrigger(delay)); err != nil {
		return "", err
	}
	return key, nil
}

func (x *scheduler) scheduleEvery(fn func(), interval time.Duration) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.started.Load() {
		return "", ErrSchedulerNotStarted
	}
	key := uuid.NewString()
	detail := quartz.NewJobDetail(job.NewFunctionJob[bool](func(context.Context) (bool, error) {
		fn()
		return true, nil
	}), quartz.NewJobKey(key))
	if err := x.quartzScheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(interval)); err != nil {
		return "", err
	}
	return key, nil
}

func (x *scheduler) cancel(key string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.started.Load() {
		return
	}
	_ = x.quartzScheduler.DeleteJob(quartz.NewJobKey(key))
}

// SendAfter delivers msg to target once delay has elapsed. Delivery uses
// Tell, so a target gone by then surfaces the message on the deadletters
// topic. The returned key cancels the pending delivery via CancelSchedule.
func SendAfter[M any](sys *System, target Ref[M], msg M, delay time.Duration) (string, error) {
	if err := sys.ensureStarted(); err != nil {
		return "", err
	}
	return sys.sched.scheduleOnce(func() {
		_ = target.Tell(msg)
	}, delay)
}

// SendEvery delivers msg to target at every interval until the schedule is
// canceled or the system stops.
func SendEvery[M any](sys *System, target Ref[M], msg M, interval time.Duration) (string, error) {
	if err := sys.ensureStarted(); err != nil {
		return "", err
	}
	return sys.sched.scheduleEvery(func() {
		_ = target.Tell(msg)
	}, interval)
}

// CancelSchedule cancels a pending delivery scheduled with SendAfter or
// SendEvery. Canceling an unknown or already-fired key is a no-op.
func CancelSchedule(sys *System, key string) {
	sys.sched.cancel(key)
}
