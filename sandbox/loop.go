package sandbox

import (
	"context"
	"sync"
)

// Loop runs queued jobs one at a time in FIFO order.
//
// Post is safe from any goroutine. Jobs only run while some goroutine
// drives the loop through Do or Future.Wait, and never two at once.
// A job must not call Wait or Do on its own loop.
type Loop struct {
	ctx   context.Context
	wake  chan struct{}
	queue []func()
	mu    sync.Mutex
	run   sync.Mutex
}

func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues job.
func (l *Loop) Post(job func()) {
	l.mu.Lock()
	l.queue = append(l.queue, job)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued jobs.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Do runs fn as the driving goroutine, then drains the queue.
func (l *Loop) Do(ctx context.Context, fn func()) {
	l.run.Lock()
	defer l.run.Unlock()

	prev := l.ctx
	l.ctx = ctx
	defer func() { l.ctx = prev }()

	fn()
	l.drain()
}

// drain runs jobs until the queue is empty, including jobs posted by
// the jobs it runs.
func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		job := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		job()
	}
}

// Await drives the loop until f settles or ctx ends.
func (l *Loop) Await(ctx context.Context, f *Future) (Value, error) {
	for {
		l.Do(ctx, func() {})
		if f.Settled() {
			return f.Result()
		}
		select {
		case <-l.wake:
		case <-f.Done():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// context returns the context of the goroutine driving the loop.
func (l *Loop) context() context.Context {
	if l.ctx == nil {
		return context.Background()
	}
	return l.ctx
}
