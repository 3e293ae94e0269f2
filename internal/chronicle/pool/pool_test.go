package pool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ehsaniara/chronicle/pkg/chronicleerr"
)

func TestSubmit_RunsTaskAndResolvesFuture(t *testing.T) {
	p := New(2)
	defer p.Stop()

	f := p.Submit(func() error { return nil })
	if err := f.Wait(); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
}

func TestSubmit_PropagatesTaskError(t *testing.T) {
	p := New(2)
	defer p.Stop()

	want := errors.New("boom")
	f := p.Submit(func() error { return want })
	if err := f.Wait(); !errors.Is(err, want) {
		t.Errorf("Wait() = %v, want %v", err, want)
	}
}

func TestSubmit_AllTasksRunAcrossWorkers(t *testing.T) {
	p := New(4)
	defer p.Stop()

	var n int64
	var futures []*Future
	for i := 0; i < 100; i++ {
		futures = append(futures, p.Submit(func() error {
			atomic.AddInt64(&n, 1)
			return nil
		}))
	}
	for _, f := range futures {
		if err := f.Wait(); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if got := atomic.LoadInt64(&n); got != 100 {
		t.Errorf("executed %d tasks, want 100", got)
	}
}

func TestSubmit_AfterStopFailsWithErrPoolStopped(t *testing.T) {
	p := New(1)
	p.Stop()

	f := p.Submit(func() error { return nil })
	if err := f.Wait(); !errors.Is(err, chronicleerr.ErrPoolStopped) {
		t.Errorf("Wait() = %v, want %v", err, chronicleerr.ErrPoolStopped)
	}
}

func TestStop_IsIdempotent(t *testing.T) {
	p := New(2)
	p.Stop()
	p.Stop() // must not hang or panic
}

func TestSubmit_NeverBlocksRegardlessOfQueueDepth(t *testing.T) {
	// A single worker stuck on a long task; queue far more behind it
	// than any bounded channel capacity would accept without blocking.
	p := New(1)
	defer p.Stop()

	block := make(chan struct{})
	defer close(block)

	p.Submit(func() error { <-block; return nil })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10_000; i++ {
			p.Submit(func() error { return nil })
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked with an unbounded queue behind a stuck worker")
	}
}

func TestStop_AbandonsQueuedTasks(t *testing.T) {
	// One worker, blocked on a long task; queue a second task behind it
	// so Stop has something left to abandon.
	p := New(1)

	block := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)

	first := p.Submit(func() error {
		started.Done()
		<-block
		return nil
	})
	started.Wait()

	second := p.Submit(func() error {
		t.Error("abandoned task must not execute")
		return nil
	})

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(block)
	}()
	p.Stop()

	if err := first.Wait(); err != nil {
		t.Errorf("first task should complete normally, got %v", err)
	}
	if err := second.Wait(); !errors.Is(err, chronicleerr.ErrPoolStopped) {
		t.Errorf("second task Wait() = %v, want %v", err, chronicleerr.ErrPoolStopped)
	}
}
