package rest

import (
	"container/heap"
	"sync"
	"time"
)

// Scheduler runs delayed work on a single goroutine. Tasks fire in due
// order; tasks with the same due time fire in scheduling order.
type Scheduler struct {
	mu      sync.Mutex
	tasks   taskHeap
	seq     uint64
	stopped bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	now func() time.Time
}

type task struct {
	due  time.Time
	seq  uint64
	run  func()
	drop func()
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// NewScheduler starts a scheduler goroutine. Call Stop to release it.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
		now:  time.Now,
	}
	go s.loop()
	return s
}

// Schedule runs fn after delay. If the scheduler is stopped before fn
// fires, drop is called instead (when non-nil). Schedule reports false,
// without calling either function, when the scheduler is already stopped.
func (s *Scheduler) Schedule(delay time.Duration, fn, drop func()) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.seq++
	heap.Push(&s.tasks, &task{
		due:  s.now().Add(delay),
		seq:  s.seq,
		run:  fn,
		drop: drop,
	})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Len returns the number of pending tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop halts the scheduler and drops pending tasks. It is safe to call
// more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.stopped = true
	pending := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	close(s.stop)
	<-s.done

	for _, t := range pending {
		if t.drop != nil {
			t.drop()
		}
	}
}

func (s *Scheduler) loop() {
	defer close(s.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		s.mu.Lock()
		var wait time.Duration = -1
		var due []*task
		now := s.now()
		for len(s.tasks) > 0 {
			next := s.tasks[0]
			if next.due.After(now) {
				wait = next.due.Sub(now)
				break
			}
			due = append(due, heap.Pop(&s.tasks).(*task))
		}
		s.mu.Unlock()

		for _, t := range due {
			t.run()
		}
		if len(due) > 0 {
			continue
		}

		if wait >= 0 {
			timer.Reset(wait)
		}
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-s.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}
	}
}
