package core

import (
	"strings"
	"testing"

	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><head>
<link rel="stylesheet" href="/css/site.css">
<link rel="preload" href="/fonts/inter.woff2" as="font">
<script src="/js/app.js"></script>
</head><body>
<a href="/about">About</a>
<a href="https://example.com/blog/">Blog</a>
<a href="mailto:me@example.com">Mail</a>
<a href="#top">Top</a>
<img data-src="/img/lazy.png" src="/img/logo.png" srcset="/img/a.jpg 1x, /img/b,c.jpg 2x">
<div style="background:url('/img/bg.png')"></div>
<video src="/media/clip.mp4" poster="/media/poster.jpg"></video>
<script>var i = new Image(); i.src = "/img/lazy-loaded.gif";</script>
</body></html>`

func TestHTMLFindURLs(t *testing.T) {
	p := NewHTMLProcessor(testConfig(t, nil))
	found := p.FindURLs(samplePage, netutil.Parse("https://example.com/", nil))
	require.NotNil(t, found)

	got := urlsOf(found)
	for _, want := range []string{
		"/about", "/blog/", "/css/site.css", "/fonts/inter.woff2", "/js/app.js",
		"/img/logo.png", "/img/a.jpg", "/img/b,c.jpg", "/img/bg.png",
		"/media/clip.mp4", "/media/poster.jpg", "/img/lazy-loaded.gif",
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "mailto:me@example.com")
	assert.NotContains(t, got, "#top")
	assert.NotContains(t, got, "/img/lazy.png", "data-src is not a src attribute")
}

func TestHTMLFindURLsHonoursDisabledCategories(t *testing.T) {
	cfg := testConfig(t, func(o *Options) {
		o.DisableImages = true
		o.DisableJavascript = true
		o.DisableFonts = true
	})
	got := urlsOf(NewHTMLProcessor(cfg).FindURLs(samplePage, netutil.Parse("https://example.com/", nil)))

	assert.Contains(t, got, "/css/site.css")
	assert.NotContains(t, got, "/img/logo.png")
	assert.NotContains(t, got, "/js/app.js")
	assert.NotContains(t, got, "/fonts/inter.woff2")
}

func TestHTMLFindURLsReportsMaxDepth(t *testing.T) {
	cfg := testConfig(t, func(o *Options) { o.MaxDepth = 1 })
	content := `<a href="/one">1</a><a href="/a/b/c">deep</a><a href="/a/b/file.pdf">file</a>`

	got := urlsOf(NewHTMLProcessor(cfg).FindURLs(content, netutil.Parse("https://example.com/", nil)))
	assert.Equal(t, []string{"/one", "/a/b/file.pdf"}, got)

	skipped := cfg.Skipped.(*SkippedCollector).Entries()
	require.Len(t, skipped, 1)
	assert.Equal(t, "https://example.com/a/b/c", skipped[0].URL)
	assert.Equal(t, SkipMaxDepth, skipped[0].Reason)
	assert.Equal(t, SourceAHref, skipped[0].Source)
}

func TestHTMLFindURLsSinglePageModes(t *testing.T) {
	content := `<a href="/next">next</a><img src="/logo.png">`

	single := testConfig(t, func(o *Options) { o.SinglePage = true })
	got := urlsOf(NewHTMLProcessor(single).FindURLs(content, netutil.Parse("https://example.com/", nil)))
	assert.Equal(t, []string{"/logo.png"}, got)

	foreign := testConfig(t, func(o *Options) { o.SingleForeignPage = true })
	p := NewHTMLProcessor(foreign)
	assert.Contains(t, urlsOf(p.FindURLs(content, netutil.Parse("https://example.com/", nil))), "/next")
	assert.NotContains(t, urlsOf(p.FindURLs(content, netutil.Parse("https://other.example/", nil))), "/next")
}

func TestHTMLFindURLsUsesBaseHref(t *testing.T) {
	content := `<head><base href="https://example.com/docs/"></head><a href="intro">intro</a>`
	got := urlsOf(NewHTMLProcessor(testConfig(t, nil)).FindURLs(content, netutil.Parse("https://example.com/", nil)))
	assert.Equal(t, []string{"/docs/intro"}, got)
}

func TestHTMLFindURLsNextChunks(t *testing.T) {
	content := `<script>self.__chunks=["//cdn.example.com/_next/static/chunks/a.js","https://cdn.example.com/_next/static/chunks/b.js","/_next/static/chunks/c.js","../_next/static/chunks/d.js"]</script>`
	got := urlsOf(NewHTMLProcessor(testConfig(t, nil)).FindURLs(content, netutil.Parse("https://example.com/", nil)))

	assert.Contains(t, got, "https://cdn.example.com/_next/static/chunks/a.js")
	assert.Contains(t, got, "https://cdn.example.com/_next/static/chunks/b.js")
	assert.Contains(t, got, "/_next/static/chunks/c.js")
	assert.Contains(t, got, "/_next/static/chunks/d.js")
}

func offlineHTML(t *testing.T, cfg ProcessorConfig, content, page string) string {
	t.Helper()
	p := NewHTMLProcessor(cfg)
	require.NoError(t, p.ApplyContentChangesForOfflineVersion(&content, ContentTypeHTML, netutil.Parse(page, nil), false))
	return content
}

func TestHTMLOfflineRewritesReferences(t *testing.T) {
	content := `<link rel="stylesheet" href="https://example.com/css/site.css">` +
		`<a href="/about">About</a>` +
		`<img src="/img/logo.png" srcset="/img/a.jpg 1x, /img/b,c.jpg 2x">` +
		`<a href="#top">Top</a><a href="mailto:x@example.com">Mail</a>` +
		`<a href="https://elsewhere.example/page">Away</a>`

	got := offlineHTML(t, testConfig(t, nil), content, "https://example.com/blog/post/")

	assert.Contains(t, got, `href="../../css/site.css"`)
	assert.Contains(t, got, `href="../../about.html"`)
	assert.Contains(t, got, `src="../../img/logo.png"`)
	assert.Contains(t, got, `srcset="../../img/a.jpg 1x, ../../img/b,c.jpg 2x"`)
	assert.Contains(t, got, `href="#top"`)
	assert.Contains(t, got, `href="mailto:x@example.com"`)
	assert.Contains(t, got, `href="https://elsewhere.example/page"`)
}

func TestHTMLOfflineExtensionFollowsTag(t *testing.T) {
	content := `<script src="/bundle"></script><img src="/photo"><video poster="/still"></video>` +
		`<link rel="stylesheet" href="/theme"><link rel="icon" href="/site-icon">` +
		`<iframe src="/embed"></iframe><a href="/page">p</a>`
	got := offlineHTML(t, testConfig(t, nil), content, "https://example.com/")

	assert.Contains(t, got, `<script src="bundle.js">`)
	assert.Contains(t, got, `<img src="photo.jpg">`)
	assert.Contains(t, got, `poster="still.jpg"`)
	assert.Contains(t, got, `href="theme.css"`)
	assert.Contains(t, got, `href="site-icon.svg"`)
	assert.Contains(t, got, `<iframe src="embed.html">`)
	assert.Contains(t, got, `href="page.html"`)
}

func TestHTMLOfflineSameOriginKeepsVisibleText(t *testing.T) {
	content := `<p>Visit https://example.com/about, or https://example.com/contact</p>` +
		`<img srcset="https://example.com/a.jpg 1x, https://example.com/b.jpg 2x">` +
		`<script>fetch("https://example.com/api/x")</script>`
	got := offlineHTML(t, testConfig(t, nil), content, "https://example.com/")

	assert.Contains(t, got, `<p>Visit https://example.com/about, or https://example.com/contact</p>`)
	assert.Contains(t, got, `srcset="a.jpg 1x, b.jpg 2x"`)
	assert.Contains(t, got, `fetch("/api/x")`)
}

func TestHTMLOfflineSkipsUnquotedJSProperties(t *testing.T) {
	content := `<a href=foo.bar>x</a><img src=logo.png>`
	got := offlineHTML(t, testConfig(t, nil), content, "https://example.com/")

	assert.Contains(t, got, `<a href=foo.bar>`)
	assert.Contains(t, got, `<img src="logo.png">`)
}

func TestHTMLOfflineHonoursIgnoreList(t *testing.T) {
	cfg := testConfig(t, func(o *Options) { o.IgnoreRegex = []string{`^/keep/`} })
	got := offlineHTML(t, cfg, `<a href="/keep/me">k</a><a href="/other">o</a>`, "https://example.com/")

	assert.Contains(t, got, `href="/keep/me"`)
	assert.Contains(t, got, `href="other.html"`)
}

func TestHTMLOfflineMetaRefreshAndInlineStyles(t *testing.T) {
	content := `<meta http-equiv="refresh" content="0; url=/new-page">` +
		`<div style="background:url(&quot;/img/bg.png&quot;)"></div>` +
		`<style>body{background:url(/img/body.png)}</style>`
	got := offlineHTML(t, testConfig(t, nil), content, "https://example.com/docs/")

	assert.Contains(t, got, `content="0; url=../new-page.html"`)
	assert.Contains(t, got, `url('../img/bg.png')`)
	assert.Contains(t, got, `url(../img/body.png)`)
}

func TestHTMLOfflineStripsDisabledFeatures(t *testing.T) {
	cfg := testConfig(t, func(o *Options) {
		o.DisableJavascript = true
		o.DisableImages = true
		o.DisableStyles = true
	})
	content := `<head><link rel="stylesheet" href="/a.css"><style>p{}</style><script src="/a.js"></script></head>` +
		`<a href="javascript:void(0)" onclick="go()">x</a>` +
		`<img class="logo" src="/img/logo.png" srcset="/img/a.jpg 1x">` +
		`<p style="color:red">t</p>`
	got := offlineHTML(t, cfg, content, "https://example.com/")

	assert.NotContains(t, got, "<script")
	assert.NotContains(t, got, "<style")
	assert.NotContains(t, got, "a.css")
	assert.NotContains(t, got, "onclick")
	assert.NotContains(t, got, "srcset")
	assert.NotContains(t, got, "color:red")
	assert.Contains(t, got, `<a href="#">x</a>`)
	assert.Contains(t, got, `class="`+disabledImageClass+` logo"`)
	assert.Contains(t, got, `src="`+disabledImageData+`"`)
}

func TestHTMLOfflineRemovesBaseTagAndUnwantedCode(t *testing.T) {
	content := `<head><base href="/"><script async src="https://www.googletagmanager.com/gtag/js?id=G-1"></script></head><p>x</p>`
	p := NewHTMLProcessor(testConfig(t, nil))
	require.NoError(t, p.ApplyContentChangesForOfflineVersion(&content, ContentTypeHTML, netutil.Parse("https://example.com/", nil), true))

	assert.NotContains(t, content, "<base")
	assert.NotContains(t, content, "googletagmanager")
	assert.Contains(t, content, "<p>x</p>")
}

func TestHTMLOfflineInjectsDepthForClientRouters(t *testing.T) {
	content := `<html><head><title>x</title></head><body><div id="__next"></div><script src="/_next/static/chunks/main.js"></script></body></html>`
	got := offlineHTML(t, testConfig(t, nil), content, "https://example.com/docs/intro")

	assert.Contains(t, got, `<head><script>var `+DepthVariable+` = 1;</script><title>`)
	assert.Contains(t, got, anchorGuardScript+`</body>`)
	assert.Contains(t, got, `src="../_next/static/chunks/main.js"`)

	again := offlineHTML(t, testConfig(t, nil), got, "https://example.com/docs/intro")
	assert.Equal(t, 1, strings.Count(again, "var "+DepthVariable))
}

func TestHTMLOfflineLeavesPlainPagesAlone(t *testing.T) {
	got := offlineHTML(t, testConfig(t, nil), `<html><head></head><body><p>plain</p></body></html>`, "https://example.com/")
	assert.NotContains(t, got, DepthVariable)
}
