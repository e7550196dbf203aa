package schedule_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RealCodeCrafter/ERP/core/schedule"
	"github.com/RealCodeCrafter/ERP/tests"
)

func TestScheduler_StartStop(t *testing.T) {
	var ticks int64
	job := schedule.Job{
		Name:  "counter",
		Every: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			atomic.AddInt64(&ticks, 1)
			return nil
		},
	}

	s := schedule.NewScheduler(testutil.NewTestLogger(), job)
	s.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	got := atomic.LoadInt64(&ticks)
	if got == 0 {
		t.Fatal("Start() never ran the job")
	}

	// no further runs after Stop
	time.Sleep(50 * time.Millisecond)
	if after := atomic.LoadInt64(&ticks); after != got {
		t.Errorf("Stop() did not stop the job: %d runs became %d", got, after)
	}
}

func TestScheduler_contextCancel(t *testing.T) {
	var ticks int64
	ctx, cancel := context.WithCancel(context.Background())

	s := schedule.NewScheduler(testutil.NewTestLogger(), schedule.Job{
		Name:  "counter",
		Every: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			atomic.AddInt64(&ticks, 1)
			return nil
		},
	})
	s.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	s.Stop()

	if atomic.LoadInt64(&ticks) == 0 {
		t.Fatal("Start() never ran the job")
	}
}
