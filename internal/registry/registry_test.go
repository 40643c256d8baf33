package registry

import (
	"testing"

	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/stretchr/testify/assert"
)

func TestDuplicateUsesCanonicalKey(t *testing.T) {
	r := NewURLRegistry()
	assert.False(t, r.Duplicate(netutil.Parse("https://Example.com:443/a/./b?y=2&x=1#top", nil)))
	assert.True(t, r.Duplicate(netutil.Parse("https://example.com/a/b?x=1&y=2", nil)))
	assert.False(t, r.Duplicate(netutil.Parse("https://example.com/a/B?x=1&y=2", nil)), "path case matters")
	assert.Equal(t, 2, r.Len())
}

func TestMarkResponse(t *testing.T) {
	r := NewURLRegistry()
	u := netutil.Parse("https://example.com/page", nil)

	assert.False(t, r.MarkResponse(u, []byte("one")))
	assert.True(t, r.MarkResponse(u, []byte("one")))
	assert.False(t, r.MarkResponse(u, []byte("two")), "changed body is new")
	assert.False(t, r.MarkResponse(u, nil))
}
