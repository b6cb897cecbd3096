package connection

import "sync"

// eventQueue is an unbounded FIFO of closures run by the manager loop.
// push never blocks, so transport goroutines and timers can always hand
// work to the loop. Capacity doubles once the queue is 70% full.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []func()
	head   int // next pop
	tail   int // next push
	count  int
	closed bool
}

func newEventQueue(capacity int) *eventQueue {
	if capacity < 1 {
		capacity = 1
	}
	q := &eventQueue{buf: make([]func(), capacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends fn. It returns false once the queue is closed.
func (q *eventQueue) push(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	threshold := (len(q.buf) * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if q.count+1 >= threshold {
		q.grow()
	}

	q.buf[q.tail] = fn
	q.tail = (q.tail + 1) % len(q.buf)
	q.count++

	q.cond.Signal()
	return true
}

// pop blocks until a closure is available. After close it keeps returning
// queued closures, then reports false.
func (q *eventQueue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.count == 0 {
		return nil, false
	}

	fn := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return fn, true
}

func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// grow doubles the capacity. Must be called with the lock held.
func (q *eventQueue) grow() {
	next := make([]func(), len(q.buf)*2)

	if q.count > 0 {
		if q.head < q.tail {
			copy(next, q.buf[q.head:q.tail])
		} else {
			n := copy(next, q.buf[q.head:])
			copy(next[n:], q.buf[:q.tail])
		}
	}

	q.buf = next
	q.head = 0
	q.tail = q.count
}
