// Package workerpool runs CPU-heavy calls on a fixed number of goroutines.
//
// The password hasher sends every bcrypt call through a Pool, so a burst of
// logins queues behind the workers instead of saturating every core. A
// caller whose context ends stops waiting, and work still queued for it is
// skipped.
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//
//	err := pool.Do(ctx, func() { hash = expensive() })
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned by Do after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// ErrPanicked wraps the value of a task that panicked.
var ErrPanicked = errors.New("workerpool: task panicked")

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	closeCh chan struct{}
}

// New starts size workers. A size below 1 is treated as 1.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		// Buffer equal to 2× the worker count so bursts can be absorbed.
		tasks:   make(chan func(), size*2),
		closeCh: make(chan struct{}),
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Do runs fn on a worker and waits for it. It returns ctx.Err() if ctx ends
// first, ErrPoolClosed after Shutdown, and an ErrPanicked error if fn
// panics. fn is not started once ctx has ended.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	task := func() {
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		done <- safeRun(fn)
	}

	if err := p.enqueue(ctx, task); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue blocks until task is queued, ctx is done, or the pool closes.
func (p *Pool) enqueue(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closeCh:
		return ErrPoolClosed
	case p.tasks <- task:
		return nil
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
// It is safe to call multiple times.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.closeCh)
		// blocked enqueuers hold the read lock until they observe closeCh
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

func safeRun(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	fn()
	return nil
}
