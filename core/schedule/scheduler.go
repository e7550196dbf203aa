// Package schedule drives the periodic sweeps. The scheduler is an explicit
// list of (name, interval, run) jobs started and stopped with the process;
// each job runs on its own ticker and never overlaps itself.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RealCodeCrafter/ERP/core"
)

type (
	// Job is one periodic task. Run is invoked once per tick; the next tick
	// is not serviced until the previous Run returns.
	Job struct {
		Name  string
		Every time.Duration
		Run   func(ctx context.Context) error
	}

	Scheduler struct {
		jobs   []Job
		logger core.Logger

		cancel context.CancelFunc
		wg     sync.WaitGroup
	}
)

func NewScheduler(logger core.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:   jobs,
		logger: logger,
	}
}

// Start launches one goroutine per job. It returns immediately; jobs run
// until Stop is called or ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}
}

// Stop cancels all jobs and blocks until in-flight runs finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	s.logger.Info(fmt.Sprintf("scheduler: %s every %s", job.Name, job.Every))

	ticker := time.NewTicker(job.Every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(fmt.Sprintf("scheduler: %s stopped", job.Name))
			return
		case <-ticker.C:
			if err := job.Run(ctx); err != nil {
				s.logger.Error(fmt.Sprintf("scheduler: %s: %v", job.Name, err), err)
			}
		}
	}
}
