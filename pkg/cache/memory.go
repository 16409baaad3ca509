package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryService is a process-local Service used when Redis is unavailable and
// in tests. Counters lose cross-instance atomicity but keep the same contract.
type MemoryService struct {
	mu      sync.Mutex
	values  map[string]string
	expires map[string]time.Time
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

var _ Service = (*MemoryService)(nil)

func (s *MemoryService) expired(key string, now time.Time) bool {
	exp, ok := s.expires[key]
	return ok && now.After(exp)
}

func (s *MemoryService) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired(key, time.Now()) {
		delete(s.values, key)
		delete(s.expires, key)
		return "", false, nil
	}
	val, ok := s.values[key]
	return val, ok, nil
}

func (s *MemoryService) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	if ttl > 0 {
		s.expires[key] = time.Now().Add(ttl)
	} else {
		delete(s.expires, key)
	}
	return nil
}

func (s *MemoryService) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	delete(s.expires, key)
	return nil
}

func (s *MemoryService) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.expired(key, now) {
		delete(s.values, key)
		delete(s.expires, key)
	}

	count := int64(0)
	if val, ok := s.values[key]; ok {
		count, _ = strconv.ParseInt(val, 10, 64)
	}
	count++
	s.values[key] = strconv.FormatInt(count, 10)
	if count == 1 && ttl > 0 {
		s.expires[key] = now.Add(ttl)
	}
	return count, nil
}

func (s *MemoryService) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expires[key]
	if !ok {
		return 0, false, nil
	}
	d := time.Until(exp)
	if d <= 0 {
		return 0, false, nil
	}
	return d, true, nil
}
