// Package credentials manages an ordered set of API keys for one provider.
// At most one key is active; rotation moves forward only and never returns
// to an exhausted key.
package credentials

import (
	"errors"
	"strings"
	"sync"
)

// ErrExhausted is returned when no further credential is available.
var ErrExhausted = errors.New("all credentials exhausted")

// Set holds the keys and the shared active index. All access goes through a
// single mutex so two concurrent quota failures cannot race past a usable
// key.
type Set struct {
	mu    sync.Mutex
	keys  []string
	index int
}

// NewSet builds a credential set from the provided keys, dropping empty
// slots. At least one usable key is required.
func NewSet(keys ...string) (*Set, error) {
	usable := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			usable = append(usable, key)
		}
	}
	if len(usable) == 0 {
		return nil, errors.New("at least one credential is required")
	}
	return &Set{keys: usable}, nil
}

// Len returns the number of keys in the set.
func (s *Set) Len() int {
	return len(s.keys)
}

// Current returns the active key and its index.
func (s *Set) Current() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[s.index], s.index
}

// Advance rotates past the key at index from. When another caller already
// rotated, the current key is returned without advancing again, so a burst
// of quota failures against the same key consumes exactly one rotation.
// ErrExhausted is returned once no further key exists.
func (s *Set) Advance(from int) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index > from {
		return s.keys[s.index], s.index, nil
	}

	if s.index+1 >= len(s.keys) {
		return "", s.index, ErrExhausted
	}

	s.index++
	return s.keys[s.index], s.index, nil
}
