package core

import (
	"testing"

	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSS = `@import "/css/base.css";
body{background:url(/img/bg.png)}
@font-face{font-family:x;src:url("../fonts/a.woff2") format("woff2")}
.x{background:url(data:image/png;base64,AAA)}`

func TestCSSFindURLs(t *testing.T) {
	p := NewCSSProcessor(testConfig(t, nil))
	got := urlsOf(p.FindURLs(sampleCSS, netutil.Parse("https://example.com/assets/css/site.css", nil)))

	assert.ElementsMatch(t, []string{"/img/bg.png", "../fonts/a.woff2", "/css/base.css"}, got)
	assert.True(t, p.IsContentTypeRelevant(ContentTypeStylesheet))
	assert.False(t, p.IsContentTypeRelevant(ContentTypeHTML))
}

func TestCSSFindURLsFiltersDisabledCategories(t *testing.T) {
	p := NewCSSProcessor(testConfig(t, func(o *Options) {
		o.DisableFonts = true
		o.DisableImages = true
	}))
	got := urlsOf(p.FindURLs(sampleCSS, netutil.Parse("https://example.com/assets/css/site.css", nil)))
	assert.Equal(t, []string{"/css/base.css"}, got)
}

func TestCSSOfflineRewrite(t *testing.T) {
	css := sampleCSS
	p := NewCSSProcessor(testConfig(t, nil))
	require.NoError(t, p.ApplyContentChangesForOfflineVersion(&css, ContentTypeStylesheet, netutil.Parse("https://example.com/assets/css/site.css", nil), false))

	assert.Contains(t, css, `@import "../../css/base.css"`)
	assert.Contains(t, css, `url(../../img/bg.png)`)
	assert.Contains(t, css, `url("../../assets/fonts/a.woff2")`)
	assert.Contains(t, css, `url(data:image/png;base64,AAA)`)
}

func TestCSSOfflineStripsDisabledCategories(t *testing.T) {
	css := sampleCSS
	p := NewCSSProcessor(testConfig(t, func(o *Options) {
		o.DisableFonts = true
		o.DisableImages = true
	}))
	require.NoError(t, p.ApplyContentChangesForOfflineVersion(&css, ContentTypeStylesheet, netutil.Parse("https://example.com/site.css", nil), false))

	assert.NotContains(t, css, "@font-face")
	assert.Contains(t, css, "body{background:none}")
	assert.Contains(t, css, `@import "css/base.css"`)
}

func TestCSSOfflineExtensionlessReferences(t *testing.T) {
	css := `@import "/theme";@import url(/print);.a{background:url(/photo)}`
	p := NewCSSProcessor(testConfig(t, nil))
	require.NoError(t, p.ApplyContentChangesForOfflineVersion(&css, ContentTypeStylesheet, netutil.Parse("https://example.com/site.css", nil), false))

	assert.Contains(t, css, `@import "theme.css"`)
	assert.Contains(t, css, `@import url(print.css)`)
	assert.Contains(t, css, `url(photo.jpg)`)
}
