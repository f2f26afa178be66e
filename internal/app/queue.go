package app

import "context"

// Queue hands work from other goroutines to the thread that owns the
// graphics context. Functions run in the order they were posted.
type Queue struct {
	ch chan func()
}

// NewQueue returns a queue holding up to size pending functions.
func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan func(), max(size, 1))}
}

// Post enqueues fn, blocking while the queue is full or until ctx is done.
func (q *Queue) Post(ctx context.Context, fn func()) error {
	select {
	case q.ch <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain runs the functions pending when it was called and returns how many
// ran. Functions posted while draining wait for the next call.
func (q *Queue) Drain() int {
	n := len(q.ch)
	for i := 0; i < n; i++ {
		fn := <-q.ch
		fn()
	}
	return n
}
