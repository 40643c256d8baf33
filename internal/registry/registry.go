package registry

import (
	"crypto/sha1"
	"encoding/hex"
	"sync"

	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/jaeles-project/sitemirror/stringset"
)

// URLRegistry decides whether a URL was already scheduled and whether a
// fetched body is new. Keys are canonical URLs, so /a?x=1&y=2 and
// /a?y=2&x=1#top are the same entry.
type URLRegistry struct {
	once       sync.Once
	filter     *stringset.StringFilter
	respMu     sync.Mutex
	respHashes map[string]string
}

func NewURLRegistry() *URLRegistry {
	return &URLRegistry{}
}

func (r *URLRegistry) ensure() {
	r.once.Do(func() {
		r.filter = stringset.NewExactStringFilter()
		r.respHashes = make(map[string]string)
	})
}

// Duplicate records u and reports whether it was seen before.
func (r *URLRegistry) Duplicate(u *netutil.ParsedURL) bool {
	key := netutil.CanonicalKey(u)
	if key == "" {
		return false
	}
	r.ensure()
	return r.filter.Duplicate(key)
}

// MarkResponse records the body hash fetched for u and reports whether the
// same body was already recorded under the same key.
func (r *URLRegistry) MarkResponse(u *netutil.ParsedURL, body []byte) bool {
	key := netutil.CanonicalKey(u)
	if key == "" || len(body) == 0 {
		return false
	}
	sum := sha1.Sum(body)
	hash := hex.EncodeToString(sum[:])

	r.ensure()
	r.respMu.Lock()
	defer r.respMu.Unlock()
	previous, seen := r.respHashes[key]
	if seen && previous == hash {
		return true
	}
	r.respHashes[key] = hash
	return false
}

func (r *URLRegistry) Len() int {
	r.ensure()
	return r.filter.Len()
}
