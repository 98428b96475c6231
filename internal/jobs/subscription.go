package jobs

import "sync"

// Subscription receives a job's events in order. Events() is closed after the
// terminal event has been delivered or once the subscription is stopped.
// Callers must either drain to close or call Store.Unsubscribe.
type Subscription struct {
	jobID string

	mu      sync.Mutex
	pending []Event
	sealed  bool

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	out      chan Event
}

func newSubscription(jobID string) *Subscription {
	sub := &Subscription{
		jobID: jobID,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
		out:   make(chan Event),
	}
	go sub.pump()
	return sub
}

// JobID returns the observed job id.
func (s *Subscription) JobID() string {
	return s.jobID
}

// Events returns the delivery channel.
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// push queues an event without blocking. Events after a terminal one are
// ignored.
func (s *Subscription) push(event Event) {
	s.mu.Lock()
	if s.sealed {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, event)
	if event.IsTerminal() {
		s.sealed = true
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Subscription) next() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return Event{}, false
	}
	event := s.pending[0]
	s.pending[0] = Event{}
	s.pending = s.pending[1:]
	return event, true
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		event, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		select {
		case s.out <- event:
		case <-s.done:
			return
		}
		if event.IsTerminal() {
			return
		}
	}
}
