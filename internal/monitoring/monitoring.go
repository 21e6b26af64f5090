package monitoring

import (
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Service counts ingest pipeline events. Counters are exposed through the
// health endpoint; anything heavier (Prometheus, Loki) would hang off the
// same RecordEvent hook.
type Service struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewService creates a new monitoring service
func NewService() *Service {
	return &Service{
		counters: make(map[string]int64),
	}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	s.mu.Lock()
	s.counters[eventName]++
	s.mu.Unlock()

	nuts.L.Debugf("[Monitoring] Event %s at %v with labels: %v", eventName, time.Now(), labels)
}

// Counters returns a snapshot of all event counts
func (s *Service) Counters() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]int64, len(s.counters))
	for name, count := range s.counters {
		snapshot[name] = count
	}
	return snapshot
}
