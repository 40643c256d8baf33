package stringset

import (
	"strings"
	"sync"
)

// StringFilter remembers strings it has seen. Lookups fold case unless the
// filter was created with NewExactStringFilter.
type StringFilter struct {
	mu    sync.Mutex
	exact bool
	seen  map[string]struct{}
}

func NewStringFilter() *StringFilter {
	return &StringFilter{seen: make(map[string]struct{})}
}

// NewExactStringFilter keeps case, for URL paths where /A and /a differ.
func NewExactStringFilter() *StringFilter {
	return &StringFilter{exact: true, seen: make(map[string]struct{})}
}

// Duplicate records s and reports whether it was already present.
func (f *StringFilter) Duplicate(s string) bool {
	key := s
	if !f.exact {
		key = strings.ToLower(s)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[key]; ok {
		return true
	}
	f.seen[key] = struct{}{}
	return false
}

func (f *StringFilter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
