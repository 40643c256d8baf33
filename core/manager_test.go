package core

import (
	"errors"
	"testing"

	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type suffixProcessor struct {
	suffix string
}

func (p *suffixProcessor) Name() string                                   { return "suffix" }
func (p *suffixProcessor) IsContentTypeRelevant(ct ContentType) bool      { return ct == ContentTypeHTML }
func (p *suffixProcessor) FindURLs(string, *netutil.ParsedURL) *FoundURLs { return NewFoundURLs() }
func (p *suffixProcessor) ApplyContentChangesBeforeURLParsing(content *string, _ ContentType, _ *netutil.ParsedURL) {
	*content += p.suffix
}
func (p *suffixProcessor) ApplyContentChangesForOfflineVersion(content *string, _ ContentType, _ *netutil.ParsedURL, _ bool) error {
	*content += p.suffix
	return nil
}

type failingProcessor struct{}

func (failingProcessor) Name() string                                   { return "failing" }
func (failingProcessor) IsContentTypeRelevant(ContentType) bool         { return true }
func (failingProcessor) FindURLs(string, *netutil.ParsedURL) *FoundURLs { return nil }
func (failingProcessor) ApplyContentChangesBeforeURLParsing(*string, ContentType, *netutil.ParsedURL) {
}
func (failingProcessor) ApplyContentChangesForOfflineVersion(*string, ContentType, *netutil.ParsedURL, bool) error {
	return ErrContentDiscarded
}

func TestManagerRejectsDuplicateRegistration(t *testing.T) {
	cfg := testConfig(t, nil)
	m := NewManager()
	require.NoError(t, m.RegisterProcessor(NewCSSProcessor(cfg)))

	err := m.RegisterProcessor(NewCSSProcessor(cfg))
	assert.True(t, errors.Is(err, ErrProcessorAlreadyRegistered))
	assert.Panics(t, func() { m.MustRegister(NewCSSProcessor(cfg)) })
	assert.Len(t, m.Processors(), 1)
}

func TestDefaultManagerOrder(t *testing.T) {
	var names []string
	for _, p := range NewDefaultManager(testConfig(t, nil)).Processors() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{
		"AstroProcessor", "HtmlProcessor", "JavaScriptProcessor", "CssProcessor",
		"XmlProcessor", "NextJsProcessor", "SvelteProcessor",
	}, names)
}

func TestManagerStopsAtFirstOfflineError(t *testing.T) {
	m := NewManager()
	m.MustRegister(&suffixProcessor{suffix: "-a"})
	m.MustRegister(failingProcessor{})
	m.MustRegister(NewSvelteProcessor(testConfig(t, nil)))

	content := "<svelte:head>body"
	err := m.ApplyContentChangesForOfflineVersion(&content, ContentTypeHTML, netutil.Parse("https://example.com/", nil), false)
	require.ErrorIs(t, err, ErrContentDiscarded)
	assert.Contains(t, err.Error(), "failing")
	assert.Equal(t, "<svelte:head>body-a", content, "earlier changes stay, later processors do not run")
}

func TestManagerSkipsIrrelevantProcessors(t *testing.T) {
	m := NewManager()
	m.MustRegister(&suffixProcessor{suffix: "-a"})

	css := "body{}"
	m.ApplyContentChangesBeforeURLParsing(&css, ContentTypeStylesheet, netutil.Parse("https://example.com/a.css", nil))
	require.NoError(t, m.ApplyContentChangesForOfflineVersion(&css, ContentTypeStylesheet, netutil.Parse("https://example.com/a.css", nil), false))
	assert.Equal(t, "body{}", css)

	html := "<p>"
	m.ApplyContentChangesBeforeURLParsing(&html, ContentTypeHTML, netutil.Parse("https://example.com/", nil))
	assert.Equal(t, "<p>-a", html)
}

func TestManagerFindURLsCollectsProcessedBatches(t *testing.T) {
	m := NewDefaultManager(testConfig(t, nil))
	batches := m.FindURLs(`<a href="/x">x</a>`, ContentTypeHTML, netutil.Parse("https://example.com/", nil))

	// HtmlProcessor and JavaScriptProcessor look at plain HTML; the others
	// return nil for it.
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"/x"}, urlsOf(batches[0]))
	assert.Equal(t, 0, batches[1].Len())

	var timed bool
	for _, timing := range m.Stats().Snapshot() {
		if timing.Processor == "HtmlProcessor" && timing.Operation == opFindURLs {
			timed = timing.Calls == 1
		}
	}
	assert.True(t, timed, "per-processor timing is recorded")
}
