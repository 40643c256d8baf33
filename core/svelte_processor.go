package core

import (
	"regexp"
	"strings"

	"github.com/jaeles-project/sitemirror/internal/netutil"
)

var svelteDirectiveRe = regexp.MustCompile(`(?is)</?svelte:[^>]*>`)

// SvelteProcessor removes leftover <svelte:...> compiler elements.
type SvelteProcessor struct {
	cfg ProcessorConfig
}

func NewSvelteProcessor(cfg ProcessorConfig) *SvelteProcessor {
	return &SvelteProcessor{cfg: cfg}
}

func (p *SvelteProcessor) Name() string {
	return "SvelteProcessor"
}

func (p *SvelteProcessor) IsContentTypeRelevant(ct ContentType) bool {
	return ct == ContentTypeHTML
}

func (p *SvelteProcessor) FindURLs(string, *netutil.ParsedURL) *FoundURLs {
	return nil
}

func (p *SvelteProcessor) ApplyContentChangesBeforeURLParsing(*string, ContentType, *netutil.ParsedURL) {}

func (p *SvelteProcessor) ApplyContentChangesForOfflineVersion(content *string, _ ContentType, _ *netutil.ParsedURL, _ bool) error {
	if strings.Contains(*content, "<svelte:") || strings.Contains(*content, "</svelte:") {
		*content = svelteDirectiveRe.ReplaceAllString(*content, "")
	}
	return nil
}
