package bench

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ygrebnov/jobpool"
)

// Result is the outcome of one scenario.
type Result struct {
	Name    string
	Passed  bool
	Detail  string
	Elapsed time.Duration
}

type scenarioFunc func(ctx context.Context, p *jobpool.Pool, cfg *Config) (bool, string, error)

var scenarios = map[string]scenarioFunc{
	ScenarioBasic:    runBasic,
	ScenarioParallel: runParallel,
	ScenarioBusy:     runBusy,
	ScenarioStress:   runStress,
	ScenarioShutdown: runShutdown,
}

// Run executes the configured scenarios in order on a started pool.
// The pool is left running. An error is returned only when the pool itself
// misbehaves (rejected submissions, failed restart) or ctx is done.
func Run(ctx context.Context, p *jobpool.Pool, cfg *Config, logger *slog.Logger) ([]Result, error) {
	results := make([]Result, 0, len(cfg.Scenarios))
	for _, name := range cfg.Scenarios {
		fn, ok := scenarios[name]
		if !ok {
			return results, fmt.Errorf("unknown scenario: %s", name)
		}

		logger.Info("scenario started", "scenario", name, "workers", p.Workers())
		start := time.Now()
		passed, detail, err := fn(ctx, p, cfg)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", name, err)
		}

		r := Result{Name: name, Passed: passed, Detail: detail, Elapsed: time.Since(start)}
		results = append(results, r)

		level := slog.LevelInfo
		if !passed {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "scenario finished",
			"scenario", r.Name, "passed", r.Passed, "detail", r.Detail, "elapsed", r.Elapsed)
	}
	return results, nil
}

// runBasic submits N jobs incrementing a shared counter and expects N after Wait.
func runBasic(ctx context.Context, p *jobpool.Pool, cfg *Config) (bool, string, error) {
	var counter atomic.Int64
	delay := cfg.Basic.JobDelay.Std()
	for range cfg.Basic.Jobs {
		err := p.Submit(func() {
			time.Sleep(delay)
			counter.Add(1)
		})
		if err != nil {
			return false, "", err
		}
	}
	if err := p.WaitContext(ctx); err != nil {
		return false, "", err
	}

	got := counter.Load()
	return got == int64(cfg.Basic.Jobs), fmt.Sprintf("executed %d/%d jobs", got, cfg.Basic.Jobs), nil
}

// runParallel expects K sleeping jobs on two or more workers to finish in well
// under K times the sleep.
func runParallel(ctx context.Context, p *jobpool.Pool, cfg *Config) (bool, string, error) {
	sleep := cfg.Parallel.Sleep.Std()
	serial := time.Duration(cfg.Parallel.Jobs) * sleep

	start := time.Now()
	for range cfg.Parallel.Jobs {
		if err := p.Submit(func() { time.Sleep(sleep) }); err != nil {
			return false, "", err
		}
	}
	if err := p.WaitContext(ctx); err != nil {
		return false, "", err
	}
	elapsed := time.Since(start)

	if p.Workers() < 2 {
		return true, fmt.Sprintf("single worker, took %s (serial %s)", elapsed, serial), nil
	}
	return elapsed < serial*3/4, fmt.Sprintf("took %s (serial %s)", elapsed, serial), nil
}

// runBusy checks that Busy reports a running job and clears after Wait.
func runBusy(ctx context.Context, p *jobpool.Pool, cfg *Config) (bool, string, error) {
	var running atomic.Bool
	sleep := cfg.Busy.Sleep.Std()
	err := p.Submit(func() {
		running.Store(true)
		time.Sleep(sleep)
		running.Store(false)
	})
	if err != nil {
		return false, "", err
	}

	time.Sleep(cfg.Busy.Probe.Std())
	busyDuring := p.Busy()
	if err := p.WaitContext(ctx); err != nil {
		return false, "", err
	}
	busyAfter := p.Busy()

	passed := busyDuring && !busyAfter && !running.Load()
	return passed, fmt.Sprintf("busy during=%t after=%t", busyDuring, busyAfter), nil
}

// runStress submits batches from concurrent producers with random short job
// durations, flushing with Wait every few batches.
func runStress(ctx context.Context, p *jobpool.Pool, cfg *Config) (bool, string, error) {
	sc := cfg.Stress
	maxDelay := int64(sc.MaxDelay.Std())
	var executed atomic.Int64

	job := func() {
		if maxDelay > 0 {
			if d := rand.Int64N(maxDelay + 1); d > 0 {
				time.Sleep(time.Duration(d))
			}
		}
		executed.Add(1)
	}

	for batch := range sc.Batches {
		g, gctx := errgroup.WithContext(ctx)
		for prod := range sc.Producers {
			share := sc.TasksPerBatch / sc.Producers
			if prod < sc.TasksPerBatch%sc.Producers {
				share++
			}
			g.Go(func() error {
				for range share {
					if err := gctx.Err(); err != nil {
						return err
					}
					if err := p.Submit(job); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return false, "", err
		}

		if sc.FlushEvery > 0 && batch%sc.FlushEvery == 0 {
			if err := p.WaitContext(ctx); err != nil {
				return false, "", err
			}
		}
		if sc.PauseEvery > 0 && batch%sc.PauseEvery == 0 {
			time.Sleep(sc.Pause.Std())
		}
	}
	if err := p.WaitContext(ctx); err != nil {
		return false, "", err
	}

	want := int64(sc.Batches) * int64(sc.TasksPerBatch)
	got := executed.Load()
	return got == want, fmt.Sprintf("executed %d/%d jobs", got, want), nil
}

// runShutdown occupies every worker, queues more jobs, stops the pool and
// checks that only the claimed jobs ran. The pool is restarted afterwards.
func runShutdown(ctx context.Context, p *jobpool.Pool, cfg *Config) (bool, string, error) {
	workers := p.Workers()
	release := make(chan struct{})
	claimed := make(chan struct{}, workers)
	var claimedDone, queuedRan atomic.Int64

	for range workers {
		err := p.Submit(func() {
			claimed <- struct{}{}
			<-release
			claimedDone.Add(1)
		})
		if err != nil {
			return false, "", err
		}
	}
	for range workers {
		select {
		case <-claimed:
		case <-ctx.Done():
			close(release)
			return false, "", ctx.Err()
		}
	}

	for range cfg.Shutdown.Queued {
		if err := p.Submit(func() { queuedRan.Add(1) }); err != nil {
			close(release)
			return false, "", err
		}
	}

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	for p.Running() {
		time.Sleep(time.Millisecond)
	}
	close(release)
	<-stopped

	if err := p.Start(); err != nil {
		return false, "", err
	}

	passed := claimedDone.Load() == int64(workers) && queuedRan.Load() == 0
	return passed, fmt.Sprintf("claimed %d/%d completed, %d/%d queued ran",
		claimedDone.Load(), workers, queuedRan.Load(), cfg.Shutdown.Queued), nil
}
