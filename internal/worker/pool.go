package worker

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/vytor/linguaflash/internal/logger"
)

// ErrStopped is returned for work submitted to a pool that is not running.
var ErrStopped = errors.New("worker pool stopped")

type Job interface {
	Run(context.Context) error
	Name() string
}

// Pool runs jobs on a fixed set of shards. Every job submitted under the
// same key lands on the same shard and shards run one job at a time, so
// jobs for one key never overlap and run in submission order.
type Pool struct {
	shards []chan Job
	wg     sync.WaitGroup
	log    *logger.Logger

	mu      sync.RWMutex
	running bool
	done    chan struct{}
	cancel  context.CancelFunc
}

func NewPool(shards, queueSize int) *Pool {
	if shards <= 0 {
		shards = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	log := logger.Default().WithPrefix("worker-pool")
	log.Debug("creating worker pool with %d shards and queue size %d", shards, queueSize)
	p := &Pool{
		shards: make([]chan Job, shards),
		log:    log,
		done:   make(chan struct{}),
	}
	for i := range p.shards {
		p.shards[i] = make(chan Job, queueSize)
	}
	return p
}

// Start launches one goroutine per shard. A stopped pool cannot be restarted.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.log.Info("starting worker pool with %d shards", len(p.shards))

	for i, jobs := range p.shards {
		p.wg.Add(1)
		go p.runShard(ctx, i, jobs)
	}
}

func (p *Pool) runShard(ctx context.Context, id int, jobs <-chan Job) {
	defer p.wg.Done()
	shardLog := p.log.WithField("shard", id)
	shardLog.Debug("shard started")

	for {
		select {
		case <-ctx.Done():
			shardLog.Debug("shard shutting down (context cancelled)")
			return
		case job := <-jobs:
			jobLog := shardLog.WithField("job", job.Name())
			jobLog.Debug("starting job")
			start := time.Now()

			jobCtx := logger.NewContext(ctx, jobLog)
			if err := job.Run(jobCtx); err != nil {
				jobLog.Warn("job failed after %v: %v", time.Since(start), err)
			} else {
				jobLog.Debug("job completed in %v", time.Since(start))
			}
		}
	}
}

// Stop cancels the shards and waits for running jobs to return. Queued jobs
// are dropped.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.done)
	p.cancel()
	p.mu.Unlock()

	p.log.Info("stopping worker pool, dropping %d queued jobs", p.queueSize())
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

func (p *Pool) shardFor(key string) chan Job {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return p.shards[h.Sum32()%uint32(len(p.shards))]
}

// Submit queues job on key's shard, blocking while the shard is full.
func (p *Pool) Submit(ctx context.Context, key string, job Job) error {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()
	if !running {
		return ErrStopped
	}

	p.log.Debug("submitting job: %s key=%s", job.Name(), key)
	select {
	case p.shardFor(key) <- job:
		return nil
	case <-p.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on key's shard and waits for it. If ctx ends or the pool stops
// before fn starts, fn is skipped. Once fn has started Do always returns its
// result, so a caller never sees a failure for work that went through.
func (p *Pool) Do(ctx context.Context, key, name string, fn func(context.Context) error) error {
	var (
		mu        sync.Mutex
		started   bool
		abandoned bool
	)
	result := make(chan error, 1)
	job := Func(name, func(jobCtx context.Context) error {
		mu.Lock()
		if abandoned || ctx.Err() != nil {
			mu.Unlock()
			return context.Canceled
		}
		started = true
		mu.Unlock()

		// the caller's values and deadline, the shard's logger
		err := fn(logger.NewContext(ctx, logger.FromContext(jobCtx)))
		result <- err
		return err
	})
	if err := p.Submit(ctx, key, job); err != nil {
		return err
	}

	// abandon reports whether fn is running; if not, it never will.
	abandon := func() bool {
		mu.Lock()
		defer mu.Unlock()
		if !started {
			abandoned = true
		}
		return started
	}

	select {
	case err := <-result:
		return err
	case <-p.done:
		if abandon() {
			return <-result
		}
		return ErrStopped
	case <-ctx.Done():
		if abandon() {
			return <-result
		}
		return ctx.Err()
	}
}

// queueSize returns the current number of pending jobs across shards.
func (p *Pool) queueSize() int {
	n := 0
	for _, s := range p.shards {
		n += len(s)
	}
	return n
}
