package core

import (
	"testing"

	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextJSFindURLsInManifest(t *testing.T) {
	p := NewNextJSProcessor(testConfig(t, nil))
	manifest := `self.__BUILD_MANIFEST={"/":["static/chunks/pages/index-1.js","static/css/a.css"],"/about":["static/chunks/pages/about-2.js"]};`

	got := urlsOf(p.FindURLs(manifest, netutil.Parse("https://example.com/_next/static/abc123/_buildManifest.js", nil)))
	assert.Equal(t, []string{
		"/_next/static/chunks/pages/index-1.js",
		"/_next/static/css/a.css",
		"/_next/static/chunks/pages/about-2.js",
	}, got)

	nested := urlsOf(p.FindURLs(manifest, netutil.Parse("https://example.com/shop/_next/static/abc123/_ssgManifest.js", nil)))
	assert.Contains(t, nested, "/shop/_next/static/chunks/pages/index-1.js")

	assert.Nil(t, p.FindURLs(manifest, netutil.Parse("https://example.com/_next/static/chunks/main.js", nil)))
}

func TestNextJSStripsDeploymentIDBeforeParsing(t *testing.T) {
	content := `<script src="/_next/static/chunks/main.js?dpl=dpl_abc123"></script><img src="/a.png?dpl=x&w=1">`
	NewNextJSProcessor(testConfig(t, nil)).ApplyContentChangesBeforeURLParsing(&content, ContentTypeHTML, netutil.Parse("https://example.com/", nil))
	assert.Equal(t, `<script src="/_next/static/chunks/main.js"></script><img src="/a.png?w=1">`, content)
}

func TestNextJSRules(t *testing.T) {
	cases := map[string]struct{ in, want string }{
		"disable-prefetch-links":  {`<link rel="prefetch" href="/x.js"><p>`, `<p>`},
		"disable-router-prefetch": {`{prefetch:!0}`, `{prefetch:!1}`},
		"webpack-public-path":     {`r.p="/_next/"`, `r.p=` + nextPrefixExpr},
		"asset-prefix-concat":     {`concat(e,"/_next/static/x.js")`, `concat(e,` + nextPrefixExpr + `+"static/x.js")`},
		"next-data-fetch":         {`fetch("/_next/data/"+id)`, `fetch((` + nextPrefixExpr + `+"data/")+id)`},
		"blank-next-data":         {`<script id="__NEXT_DATA__" type="application/json">{"props":{"a":1}}</script>`, `<script id="__NEXT_DATA__" type="application/json">{}</script>`},
		"blank-flight-payload":    {`self.__next_f.push([1,"abc\"def"])`, `self.__next_f.push([1,""])`},
		"asset-prefix-empty":      {`{assetPrefix:"/base"}`, `{assetPrefix:""}`},
		"asset-prefix-empty-json": {`{"assetPrefix":"/base"}`, `{"assetPrefix":""}`},
		"deployment-id-leading":   {`a.js?dpl=abc&v=1`, `a.js?v=1`},
		"deployment-id":           {`a.js?dpl=abc`, `a.js`},
		"drop-polyfill-nomodule":  {`<script src="/p.js" nomodule=""></script>x`, `x`},
	}
	require.Len(t, cases, len(nextJSRules), "every rule has a case")

	for _, rule := range nextJSRules {
		tc, ok := cases[rule.name]
		require.True(t, ok, rule.name)
		assert.Equal(t, tc.want, rule.apply(tc.in), rule.name)
	}
}

func TestNextJSOfflineRespectsContentType(t *testing.T) {
	p := NewNextJSProcessor(testConfig(t, nil))

	js := `r.p="/_next/";prefetch:!0`
	require.NoError(t, p.ApplyContentChangesForOfflineVersion(&js, ContentTypeScript, netutil.Parse("https://example.com/_next/static/chunks/webpack.js", nil), false))
	assert.Equal(t, `r.p=`+nextPrefixExpr+`;prefetch:!1`, js)

	html := `<p>prefetch:!0</p><script src="/_next/static/chunks/main.js"></script>`
	require.NoError(t, p.ApplyContentChangesForOfflineVersion(&html, ContentTypeHTML, netutil.Parse("https://example.com/", nil), false))
	assert.Contains(t, html, "prefetch:!0", "script-only rules do not touch HTML")

	plain := `prefetch:!0`
	require.NoError(t, p.ApplyContentChangesForOfflineVersion(&plain, ContentTypeScript, netutil.Parse("https://example.com/js/app.js", nil), false))
	assert.Equal(t, `prefetch:!0`, plain)
}

func TestSvelteStripsDirectives(t *testing.T) {
	p := NewSvelteProcessor(testConfig(t, nil))
	content := `<svelte:head><title>x</title></svelte:head><svelte:options immutable /><p>body</p>`
	require.NoError(t, p.ApplyContentChangesForOfflineVersion(&content, ContentTypeHTML, netutil.Parse("https://example.com/", nil), false))

	assert.Equal(t, `<title>x</title><p>body</p>`, content)
	assert.Nil(t, p.FindURLs(content, netutil.Parse("https://example.com/", nil)))
}
