package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SlogSink writes events to the structured log. It is the default sink for
// development runs without a broker.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Emit(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "notification",
		"kind", event.Kind,
		"payload", event.Payload,
	)
	return nil
}

// MemorySink records events for tests, with the receive time of each.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
	times  []time.Time

	// FailKinds lists kinds whose emission should fail, to exercise the
	// best-effort path.
	FailKinds map[Kind]error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.FailKinds[event.Kind]; ok {
		return err
	}
	s.events = append(s.events, event)
	s.times = append(s.times, time.Now())
	return nil
}

// Events returns a snapshot of everything recorded so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Times returns the receive timestamps parallel to Events.
func (s *MemorySink) Times() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.times...)
}

// ByKind filters recorded events.
func (s *MemorySink) ByKind(kind Kind) []Event {
	var result []Event
	for _, e := range s.Events() {
		if e.Kind == kind {
			result = append(result, e)
		}
	}
	return result
}
