package core

import (
	"regexp"
	"strings"

	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/jaeles-project/sitemirror/internal/offline"
)

var (
	jsImportFromRe    = regexp.MustCompile(`(\bfrom\s*)(["'])([^"'\s]+\.m?js)["']`)
	jsSideEffectRe    = regexp.MustCompile(`(\bimport\s*)(["'])([^"'\s]+\.m?js)["']`)
	jsDynamicImportRe = regexp.MustCompile(`(\bimport\(\s*)(["'])([^"'\s]+\.m?js)["']`)
	crossoriginRe     = regexp.MustCompile(`(?i)(^|[^\w])crossorigin`)
)

// JavaScriptProcessor follows ES module imports and keeps scripts loadable
// from file:// URLs.
type JavaScriptProcessor struct {
	cfg ProcessorConfig
}

func NewJavaScriptProcessor(cfg ProcessorConfig) *JavaScriptProcessor {
	return &JavaScriptProcessor{cfg: cfg}
}

func (p *JavaScriptProcessor) Name() string {
	return "JavaScriptProcessor"
}

func (p *JavaScriptProcessor) IsContentTypeRelevant(ct ContentType) bool {
	return ct == ContentTypeScript || ct == ContentTypeHTML
}

func (p *JavaScriptProcessor) FindURLs(content string, sourceURL *netutil.ParsedURL) *FoundURLs {
	if p.cfg.options().DisableJavascript {
		return nil
	}
	found := NewFoundURLs()
	var matches []string
	for _, re := range []*regexp.Regexp{jsImportFromRe, jsSideEffectRe, jsDynamicImportRe} {
		matches = append(matches, submatches(re, content, 3)...)
	}
	found.AddURLsFromTextArray(matches, sourceURL.FullURL(true, false), SourceJSURL)
	return found
}

func (p *JavaScriptProcessor) ApplyContentChangesBeforeURLParsing(*string, ContentType, *netutil.ParsedURL) {}

func (p *JavaScriptProcessor) ApplyContentChangesForOfflineVersion(content *string, _ ContentType, u *netutil.ParsedURL, _ bool) error {
	js := crossoriginRe.ReplaceAllString(*content, "${1}_crossorigin")
	*content = p.rewriteImports(js, u)
	return nil
}

// rewriteImports makes root-relative and absolute module specifiers
// relative to the offline file. Specifiers that are already relative
// resolve correctly as they are.
func (p *JavaScriptProcessor) rewriteImports(js string, u *netutil.ParsedURL) string {
	for _, re := range []*regexp.Regexp{jsImportFromRe, jsSideEffectRe, jsDynamicImportRe} {
		js = replaceAllSubmatchFunc(re, js, func(g []string) string {
			specifier := g[3]
			if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || p.cfg.options().IsIgnored(specifier) {
				return g[0]
			}
			if !strings.HasPrefix(specifier, "/") && !strings.Contains(specifier, "://") {
				return g[0]
			}
			rel := p.cfg.relativeURL(specifier, u, u, offline.AttributeScript)
			if !strings.HasPrefix(rel, ".") && !strings.Contains(rel, "://") {
				rel = "./" + rel
			}
			return g[1] + g[2] + rel + g[2]
		})
	}
	return js
}
