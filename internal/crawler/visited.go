package crawler

import (
	"sync"

	"github.com/nao1215/docmirror/internal/scope"
)

// VisitedSet records the URLs a crawl has claimed.
// URLs are compared in their scope.Normalize form. The zero value is not
// usable; call NewVisitedSet.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// MarkIfNotVisited adds url and reports whether it was absent.
// Exactly one of any number of concurrent callers with the same URL
// gets true.
func (v *VisitedSet) MarkIfNotVisited(url string) bool {
	key := scope.Normalize(url)

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.seen[key]; ok {
		return false
	}
	v.seen[key] = struct{}{}
	return true
}

// Contains reports whether url has been marked.
func (v *VisitedSet) Contains(url string) bool {
	key := scope.Normalize(url)

	v.mu.Lock()
	defer v.mu.Unlock()

	_, ok := v.seen[key]
	return ok
}

// Len returns the number of marked URLs.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
