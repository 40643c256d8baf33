package netutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResolvesLikeBrowser(t *testing.T) {
	base := Parse("https://example.com/a/b/page.html?x=1", nil)

	cases := []struct {
		raw  string
		want string
	}{
		{"//cdn.example.org/lib.js", "https://cdn.example.org/lib.js"},
		{"/root.css", "https://example.com/root.css"},
		{"img/logo.png", "https://example.com/a/b/img/logo.png"},
		{"./x.js", "https://example.com/a/b/x.js"},
		{"../up.html", "https://example.com/a/up.html"},
		{"http://other.com:8080/p?q=1#top", "http://other.com:8080/p?q=1#top"},
		{"?page=2", "https://example.com/a/b/page.html?page=2"},
	}
	for _, tc := range cases {
		got := Parse(tc.raw, base).FullURL(true, true)
		assert.Equal(t, tc.want, got, "resolving %q", tc.raw)
	}
}

func TestParseFields(t *testing.T) {
	p := Parse("https://Shop.Example.co.uk:8443/path/file.JPG?size=2#frag", nil)

	assert.Equal(t, "https", p.Scheme)
	assert.Equal(t, "shop.example.co.uk", p.Host)
	assert.Equal(t, 8443, p.Port)
	assert.Equal(t, "/path/file.JPG", p.Path)
	assert.Equal(t, "size=2", p.Query)
	assert.Equal(t, "frag", p.Fragment)
	assert.Equal(t, "jpg", p.Extension)
	assert.Equal(t, "example.co.uk", p.Domain2ndLevel)
	assert.True(t, p.IsStaticFile())
}

func TestParseDefaultPortIsDropped(t *testing.T) {
	p := Parse("https://example.com:443/", nil)
	assert.Equal(t, 0, p.Port)
	assert.Equal(t, "https://example.com/", p.FullURL(true, true))
}

func TestParseNeverFails(t *testing.T) {
	inputs := []string{"", "http://[::1", "::::", "%zz", "mailto:me@example.com", "javascript:void(0)", "relative/path?q#f"}
	for _, raw := range inputs {
		require.NotPanics(t, func() {
			p := Parse(raw, nil)
			require.NotNil(t, p)
		}, raw)
	}

	p := Parse("relative/path?q=1#f", nil)
	assert.Equal(t, "relative/path", p.Path)
	assert.Equal(t, "q=1", p.Query)
	assert.Equal(t, "f", p.Fragment)

	mail := Parse("mailto:me@example.com", nil)
	assert.Equal(t, "mailto", mail.Scheme)
	assert.False(t, mail.IsHTTP())
}

func TestFragmentOnly(t *testing.T) {
	base := Parse("https://example.com/page", nil)
	p := Parse("#section", base)
	assert.True(t, p.IsOnlyFragment())
	assert.Equal(t, "section", p.Fragment)
	assert.False(t, Parse("/page#section", base).IsOnlyFragment())
}

func TestEstimateExtension(t *testing.T) {
	cases := map[string]string{
		"/":                    "",
		"/about":               "",
		"/style.CSS":           "css",
		"/v1.2/download":       "",
		"/lib/jquery-3.6.0":    "",
		"/archive.tar.gz":      "gz",
		"/index.php":           "php",
		"/very.longextension1": "",
	}
	for path, want := range cases {
		p := &ParsedURL{Path: path}
		assert.Equal(t, want, p.EstimateExtension(), path)
	}
}

func TestDepthAndSegments(t *testing.T) {
	cases := []struct {
		path     string
		depth    int
		segments int
	}{
		{"", 0, 0},
		{"/", 0, 0},
		{"/about", 0, 1},
		{"/blog/", 1, 1},
		{"/a/b/c", 2, 3},
		{"/a/b/c/", 3, 3},
	}
	for _, tc := range cases {
		p := &ParsedURL{Path: tc.path}
		assert.Equal(t, tc.depth, p.Depth(), "depth of %q", tc.path)
		assert.Equal(t, tc.segments, p.PathSegments(), "segments of %q", tc.path)
	}
}

func TestCloneIsolatesMutation(t *testing.T) {
	original := Parse("https://example.com/x/y.html?a=1", nil)
	original.Debug = true

	clone := original.Clone()
	clone.SetPath("/z/index.html", "filename")
	clone.SetQuery("")
	clone.ChangeDepth(2, "depth")

	assert.Equal(t, "/x/y.html", original.Path)
	assert.Equal(t, "a=1", original.Query)
	assert.Empty(t, original.Trail())

	assert.Equal(t, "../../z/index.html", clone.Path)
	assert.Len(t, clone.Trail(), 3)
}

func TestChangeDepth(t *testing.T) {
	p := &ParsedURL{Path: "/x"}
	p.ChangeDepth(0, "")
	assert.Equal(t, "x", p.Path)

	p = &ParsedURL{Path: "../../x"}
	p.ChangeDepth(-1, "")
	assert.Equal(t, "../x", p.Path)

	p.ChangeDepth(-5, "")
	assert.Equal(t, "x", p.Path)
}

func TestCanonicalKey(t *testing.T) {
	a := Parse("HTTPS://Example.com:443/a/./b/../c?z=1&a=2#frag", nil)
	b := Parse("https://example.com/a/c?a=2&z=1", nil)
	assert.Equal(t, CanonicalKey(b), CanonicalKey(a))
	assert.Equal(t, "https://example.com/a/c?a=2&z=1", CanonicalKey(a))

	assert.NotEqual(t, CanonicalKey(Parse("https://example.com/blog", nil)), CanonicalKey(Parse("https://example.com/blog/", nil)))
}
