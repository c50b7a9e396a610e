package messenger

import "sync"

// Strand runs submitted functions one at a time in submission order on a
// single goroutine. Dispatch never blocks, so a function running on the
// strand may safely dispatch more work onto the same strand.
type Strand struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool
}

// NewStrand creates and starts a strand
func NewStrand() *Strand {
	s := &Strand{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

// Dispatch schedules fn. Functions dispatched after Stop are dropped.
func (s *Strand) Dispatch(fn func()) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Stop ends the strand after the function currently running (if any).
// Queued functions that have not started are discarded.
func (s *Strand) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.queue = nil
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Done is closed once the strand goroutine has exited
func (s *Strand) Done() <-chan struct{} {
	return s.done
}

func (s *Strand) run() {
	defer close(s.done)

	for range s.wake {
		for {
			s.mu.Lock()
			if s.stopped {
				s.mu.Unlock()
				return
			}
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			fn := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()

			fn()
		}
	}
}
