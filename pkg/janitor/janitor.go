// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package janitor runs periodic cleanup of in-memory state.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kadirpekel/folio/pkg/ratelimit"
	"github.com/kadirpekel/folio/pkg/session"
)

// Job is a named cleanup task. Run returns the number of removed entries.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func() int
}

// Janitor schedules Jobs on a cron runner.
type Janitor struct {
	cron *cron.Cron
	jobs []Job
}

// New registers jobs. Jobs with a non-positive interval are skipped.
func New(jobs ...Job) (*Janitor, error) {
	log := slogLogger{}
	j := &Janitor{
		cron: cron.New(
			cron.WithLogger(log),
			cron.WithChain(cron.SkipIfStillRunning(log), cron.Recover(log)),
		),
	}

	for _, job := range jobs {
		if job.Interval <= 0 || job.Run == nil {
			continue
		}
		job := job
		spec := "@every " + job.Interval.String()
		if _, err := j.cron.AddFunc(spec, func() { run(job) }); err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		j.jobs = append(j.jobs, job)
	}
	return j, nil
}

// Jobs returns the scheduled jobs.
func (j *Janitor) Jobs() []Job {
	return j.jobs
}

// Start begins running jobs in the background.
func (j *Janitor) Start() {
	j.cron.Start()
	slog.Debug("Janitor started", "jobs", len(j.jobs))
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (j *Janitor) Stop(ctx context.Context) error {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow runs every job once on the calling goroutine.
func (j *Janitor) RunNow() {
	for _, job := range j.jobs {
		run(job)
	}
}

func run(job Job) {
	start := time.Now()
	removed := job.Run()
	slog.Debug("Cleanup job finished",
		"job", job.Name,
		"removed", removed,
		"duration", time.Since(start))
}

// SessionSweep removes expired sessions.
func SessionSweep(store session.Store, every time.Duration) Job {
	return Job{Name: "session_sweep", Interval: every, Run: store.SweepExpired}
}

// RateLimitSweep forgets clients with no requests in the last hour.
func RateLimitSweep(limiter *ratelimit.SlidingWindowLimiter, every time.Duration) Job {
	return Job{Name: "rate_limit_sweep", Interval: every, Run: limiter.SweepAll}
}

// slogLogger routes cron's own logging to slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
