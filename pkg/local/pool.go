package local

import (
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool runs tasks with a bounded number in flight. Unlike a bare errgroup it
// keeps running after a failure and reports every task error from Wait.
type Pool struct {
	group errgroup.Group

	mu   sync.Mutex
	errs []error
}

func NewPool(numWorkers int) *Pool {
	p := &Pool{}
	p.group.SetLimit(max(numWorkers, 1))
	return p
}

// Go blocks until a slot is free and then runs task.
func (p *Pool) Go(task func() error) {
	p.group.Go(func() error {
		if err := task(); err != nil {
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
		return nil
	})
}

// Wait returns once every task has finished.
func (p *Pool) Wait() error {
	_ = p.group.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}
