package offline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"index.html", "index.html"},
		{"a/b/page.php", "a/b/page.php.html"},
		{"shop/item.ASPX", "shop/item.ASPX.html"},
		{"caf%C3%A9/men%C3%BC.html", "café/menü.html"},
		{`we:ird*na"me<>|.html`, "we_ird_na_me_.html"},
		{"a___b.css", "a_b.css"},
		{"about.html/team.html", "about.html_/team.html"},
		{"../_cdn.example.com/x.js", "../_cdn.example.com/x.js"},
		{"100%25.html", "100_.html"},
		{"page.html#top", "page.html"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeFilePath(tc.in, false, nil), tc.in)
	}
}

func TestSanitizeKeepsFragmentWhenAsked(t *testing.T) {
	assert.Equal(t, "page.html#top", SanitizeFilePath("page.html#top", true, nil))
}

func TestSanitizeQueryHash(t *testing.T) {
	got := SanitizeFilePath("search.html?q=test", false, nil)
	require.Equal(t, "search."+shortHash("q=test")+".html", got)
	assert.Len(t, shortHash("q=test"), 10)

	assert.Equal(t, "list."+shortHash("p=2"), SanitizeFilePath("list?p=2", false, nil))
	assert.Equal(t, "dir/index."+shortHash("a=1")+".html", SanitizeFilePath("dir/?a=1", false, nil))
	assert.Equal(t, "page.php."+shortHash("id=7")+".html", SanitizeFilePath("page.php?id=7", false, nil))
}

func TestSanitizeQueryReplacements(t *testing.T) {
	rules, err := ParseQueryReplacements([]string{
		"/([^&]+)=([^&]*)(&|$)/ -> $1-$2_",
		"secret -> hidden",
	})
	require.NoError(t, err)

	got := SanitizeFilePath("list.html?page=2&sort=secret", false, rules)
	assert.Equal(t, "list.page-2_sort-hidden_.html", got)
}

func TestParseQueryReplacementsErrors(t *testing.T) {
	_, err := ParseQueryReplacements([]string{"no arrow here"})
	assert.Error(t, err)

	_, err = ParseQueryReplacements([]string{"/([unclosed/ -> x"})
	assert.Error(t, err)

	rules, err := ParseQueryReplacements([]string{"", "  "})
	assert.NoError(t, err)
	assert.Empty(t, rules)
}

func TestSanitizeShortensLongNames(t *testing.T) {
	long := strings.Repeat("segment-", 40) + ".html"
	got := SanitizeFilePath("dir/"+long, false, nil)

	assert.True(t, strings.HasPrefix(got, "dir/"))
	assert.True(t, strings.HasSuffix(got, ".html"))
	assert.LessOrEqual(t, len(got), len("dir/")+40+len(".html"))
}

func TestSanitizeLengthIgnoresParentSegments(t *testing.T) {
	rooted := strings.Repeat("d", 150) + "/" + strings.Repeat("p", 43) + ".png"
	require.Equal(t, rooted, SanitizeFilePath(rooted, false, nil))

	assert.Equal(t, "../../"+rooted, SanitizeFilePath("../../"+rooted, false, nil))
	assert.NotEqual(t, "xy/"+rooted, SanitizeFilePath("xy/"+rooted, false, nil))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"/",
		"index.html",
		"a/b/page.php",
		"search?q=a b&c=%2F",
		"caf%C3%A9/men%C3%BC.html",
		"100%2525.html",
		"x.php?id=1#frag",
		`we:ird*na"me<>|.html`,
		"about.html/team.html",
		"about.html_/team.html",
		"../../_cdn.example.com/lib/a.js",
		"dir/" + strings.Repeat("long-name-", 30) + ".php?x=1",
		strings.Repeat("deep-directory-name/", 15) + "file.html",
		"a__/b__.css",
		"v1.2/download",
	}
	for _, in := range inputs {
		for _, keep := range []bool{false, true} {
			once := SanitizeFilePath(in, keep, nil)
			twice := SanitizeFilePath(once, keep, nil)
			assert.Equal(t, once, twice, "input %q keepFragment=%v", in, keep)
		}
	}
}
