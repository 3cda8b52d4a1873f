package queue

import (
	"context"
	"log"
	"sync"
	"time"
)

// Handler processes one task. Returning nil acknowledges it; an error leaves
// it leased so it is delivered again once the lease expires.
type Handler func(ctx context.Context, task Task) error

type WorkerConfig struct {
	Workers      int
	PollInterval time.Duration
	Lease        time.Duration
}

// WorkerPool feeds claimed tasks from one poller to a fixed set of workers.
type WorkerPool struct {
	queue   Queue
	handler Handler
	cfg     WorkerConfig

	jobs chan *Task
	once sync.Once
	wg   sync.WaitGroup
}

func NewWorkerPool(q Queue, handler Handler, cfg WorkerConfig) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 5 * time.Minute
	}
	return &WorkerPool{
		queue:   q,
		handler: handler,
		cfg:     cfg,
		jobs:    make(chan *Task, cfg.Workers),
	}
}

// Start launches the poller and the workers. They stop when ctx is done.
func (p *WorkerPool) Start(ctx context.Context) {
	p.once.Do(func() {
		for i := 1; i <= p.cfg.Workers; i++ {
			p.wg.Add(1)
			go p.worker(ctx, i)
		}
		p.wg.Add(1)
		go p.poll(ctx)
	})
}

// Wait blocks until every goroutine started by Start has returned.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

func (p *WorkerPool) poll(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)

	for {
		// Only claim what the workers can take right away so that leases
		// do not run out while tasks sit in the buffer.
		for len(p.jobs) < cap(p.jobs) {
			task, err := p.queue.Claim(ctx, p.cfg.Lease)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("Error claiming index task: %v", err)
				}
				break
			}
			if task == nil {
				break
			}
			select {
			case p.jobs <- task:
			case <-ctx.Done():
				return
			}
		}
		if !sleepWithContext(ctx, p.cfg.PollInterval) {
			return
		}
	}
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	log.Printf("Starting index worker %d", id)
	for task := range p.jobs {
		handle(ctx, p.queue, p.handler, task)
	}
}

// ProcessAvailable drains every task that is available now and returns how
// many were handled. Used by the CLI and in tests.
func ProcessAvailable(ctx context.Context, q Queue, handler Handler, lease time.Duration) (int, error) {
	handled := 0
	for {
		if err := ctx.Err(); err != nil {
			return handled, err
		}
		task, err := q.Claim(ctx, lease)
		if err != nil {
			return handled, err
		}
		if task == nil {
			return handled, nil
		}
		handle(ctx, q, handler, task)
		handled++
	}
}

func handle(ctx context.Context, q Queue, handler Handler, task *Task) {
	if err := handler(ctx, *task); err != nil {
		TasksHandled.WithLabelValues("error").Inc()
		log.Printf("Index task %s for %s failed, leaving it for redelivery: %v", task.ID, task.EntryID, err)
		return
	}
	TasksHandled.WithLabelValues("ok").Inc()
	if err := q.Ack(ctx, task.ID); err != nil {
		log.Printf("Error acknowledging index task %s: %v", task.ID, err)
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
