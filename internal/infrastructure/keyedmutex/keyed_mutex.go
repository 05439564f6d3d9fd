package keyedmutex

import (
	"sync"

	portsout "cryptosub/internal/application/ports/out"
)

// Set is a process-wide claim table. Entries exist only while held, so the map never grows
// beyond the number of in-flight keys.
type Set struct {
	mu   sync.Mutex
	held map[string]struct{}
}

var _ portsout.KeyedLocker = (*Set)(nil)

func New() *Set {
	return &Set{held: make(map[string]struct{})}
}

func (s *Set) TryLock(key string) (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.held[key]; busy {
		return func() {}, false
	}
	s.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.held, key)
			s.mu.Unlock()
		})
	}, true
}

func (s *Set) Held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.held)
}
