package core

import (
	"regexp"
	"strings"

	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/jaeles-project/sitemirror/internal/offline"
)

var (
	cssURLRe    = regexp.MustCompile(`(?i)url\(\s*(["']?)([^"')]*)["']?\s*\)`)
	cssImportRe = regexp.MustCompile(`(?i)@import\s+(["'])([^"']+)["']`)
	// cssRefRe is cssURLRe with the @import that may precede url().
	cssRefRe    = regexp.MustCompile(`(?i)(@import\s+)?url\(\s*(["']?)([^"')]*)["']?\s*\)`)
	fontFaceRe  = regexp.MustCompile(`(?is)@font-face\s*\{[^}]*\}`)

	imageExtRe = regexp.MustCompile(`(?i)\.(?:png|gif|jpe?g|ico|svg|webp|avif|bmp|tiff?)(?:[?#].*)?$`)
	fontExtRe  = regexp.MustCompile(`(?i)\.(?:eot|ttf|woff2?|otf)(?:[?#].*)?$`)
	cssExtRe   = regexp.MustCompile(`(?i)\.css(?:[?#].*)?$`)
)

type CSSProcessor struct {
	cfg ProcessorConfig
}

func NewCSSProcessor(cfg ProcessorConfig) *CSSProcessor {
	return &CSSProcessor{cfg: cfg}
}

func (p *CSSProcessor) Name() string {
	return "CssProcessor"
}

func (p *CSSProcessor) IsContentTypeRelevant(ct ContentType) bool {
	return ct == ContentTypeStylesheet
}

func (p *CSSProcessor) FindURLs(content string, sourceURL *netutil.ParsedURL) *FoundURLs {
	opts := p.cfg.options()
	found := NewFoundURLs()

	var matches []string
	for _, raw := range submatches(cssURLRe, content, 2) {
		if cssCategoryEnabled(raw, opts) {
			matches = append(matches, raw)
		}
	}
	if !opts.DisableStyles {
		matches = append(matches, submatches(cssImportRe, content, 2)...)
	}
	found.AddURLsFromTextArray(matches, sourceURL.FullURL(true, false), SourceCSSURL)
	return found
}

func (p *CSSProcessor) ApplyContentChangesBeforeURLParsing(*string, ContentType, *netutil.ParsedURL) {}

func (p *CSSProcessor) ApplyContentChangesForOfflineVersion(content *string, _ ContentType, u *netutil.ParsedURL, _ bool) error {
	css := stripDisabledCSS(*content, p.cfg.options())
	*content = rewriteCSSURLs(css, u, u, p.cfg)
	return nil
}

func cssCategoryEnabled(raw string, opts *Options) bool {
	switch {
	case imageExtRe.MatchString(raw):
		return !opts.DisableImages
	case fontExtRe.MatchString(raw):
		return !opts.DisableFonts
	case cssExtRe.MatchString(raw):
		return !opts.DisableStyles
	}
	return true
}

// stripDisabledCSS removes font faces and image references the options
// turn off. It works on stylesheets and on HTML with inline styles.
func stripDisabledCSS(css string, opts *Options) string {
	if opts.DisableFonts {
		css = fontFaceRe.ReplaceAllString(css, "")
	}
	if opts.DisableImages {
		css = replaceAllSubmatchFunc(cssURLRe, css, func(g []string) string {
			if imageExtRe.MatchString(strings.TrimSpace(g[2])) {
				return "none"
			}
			return g[0]
		})
	}
	return css
}

// rewriteCSSURLs points every url() and @import at its offline copy.
func rewriteCSSURLs(css string, resolve, page *netutil.ParsedURL, cfg ProcessorConfig) string {
	opts := cfg.options()
	keep := func(raw string) bool {
		lower := strings.ToLower(raw)
		return raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(lower, "data:") || opts.IsIgnored(raw)
	}

	css = replaceAllSubmatchFunc(cssRefRe, css, func(g []string) string {
		raw := strings.TrimSpace(g[3])
		if keep(raw) {
			return g[0]
		}
		kind := offline.AttributeImage
		if g[1] != "" {
			kind = offline.AttributeStylesheet
		}
		return g[1] + "url(" + g[2] + cfg.relativeURL(raw, resolve, page, kind) + g[2] + ")"
	})
	return replaceAllSubmatchFunc(cssImportRe, css, func(g []string) string {
		raw := strings.TrimSpace(g[2])
		if keep(raw) {
			return g[0]
		}
		return "@import " + g[1] + cfg.relativeURL(raw, resolve, page, offline.AttributeStylesheet) + g[1]
	})
}
