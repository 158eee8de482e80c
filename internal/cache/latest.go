package cache

import "sync"

// Latest is the concurrent latest-value-per-patient store backing the
// /latest endpoints. One instance exists per stream type (vitals, ECG).
// Entries are replaced wholesale under the lock, so a reader can never
// observe a partially written value; they live for the lifetime of the
// service (no expiry).
type Latest[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{entries: make(map[string]T)}
}

// Upsert replaces the entry for patientID. "Latest" means processing
// order, not any timestamp carried by the payload.
func (l *Latest[T]) Upsert(patientID string, value T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[patientID] = value
}

// Get returns the current entry, or false when the patient has never
// produced a message on this stream.
func (l *Latest[T]) Get(patientID string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.entries[patientID]
	return v, ok
}

// Keys returns every patient identifier with a recorded entry.
func (l *Latest[T]) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	return keys
}

// Len reports the number of tracked patients.
func (l *Latest[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
