package jobs

import (
	"context"
	"errors"
	"io"
	"time"
)

// DefaultIdleTimeout bounds how long a stream waits between events.
const DefaultIdleTimeout = 300 * time.Second

// ErrIdleTimeout is returned when a stream receives nothing within its idle
// window.
var ErrIdleTimeout = errors.New("job stream idle timeout")

// Stream is a pull-based view over a Subscription with an idle timeout.
type Stream struct {
	store *Store
	sub   *Subscription
	idle  time.Duration
}

// Stream subscribes to a job and returns an idle-bounded reader.
func (s *Store) Stream(id string, idle time.Duration) (*Stream, error) {
	sub, err := s.Subscribe(id)
	if err != nil {
		return nil, err
	}
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Stream{store: s, sub: sub, idle: idle}, nil
}

// Next blocks for the next event. It returns io.EOF after the terminal event
// has been consumed and ErrIdleTimeout when the idle window elapses.
func (st *Stream) Next(ctx context.Context) (Event, error) {
	timer := time.NewTimer(st.idle)
	defer timer.Stop()
	select {
	case event, ok := <-st.sub.Events():
		if !ok {
			return Event{}, io.EOF
		}
		return event, nil
	case <-timer.C:
		return Event{}, ErrIdleTimeout
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close detaches the stream from the job.
func (st *Stream) Close() {
	st.store.Unsubscribe(st.sub)
}
