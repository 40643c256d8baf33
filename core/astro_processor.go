package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/jaeles-project/sitemirror/internal/offline"
)

var (
	astroAttrRe        = regexp.MustCompile(`(?i)\s(?:component-url|renderer-url)\s*=\s*["']([^"']+)["']`)
	astroScriptRe      = regexp.MustCompile(`(?is)<script(\s[^>]*)>\s*</script>`)
	moduleTypeRe       = regexp.MustCompile(`(?i)\stype\s*=\s*["']?module["']?`)
	srcAttrRe          = singleAttrPattern(`src`)
	sideEffectImportRe = regexp.MustCompile(`\bimport\s*["']([^"']+)["']\s*;?`)
	moduleSpecifierRe  = regexp.MustCompile(`(\bfrom\s*|\bimport\(\s*)(["'])([^"']+)["']`)
)

// AstroProcessor collects island component URLs and, for the offline copy,
// inlines module scripts since browsers refuse module imports over file://.
type AstroProcessor struct {
	cfg ProcessorConfig
}

func NewAstroProcessor(cfg ProcessorConfig) *AstroProcessor {
	return &AstroProcessor{cfg: cfg}
}

func (p *AstroProcessor) Name() string {
	return "AstroProcessor"
}

func (p *AstroProcessor) IsContentTypeRelevant(ct ContentType) bool {
	return ct == ContentTypeHTML
}

func (p *AstroProcessor) FindURLs(content string, sourceURL *netutil.ParsedURL) *FoundURLs {
	if p.cfg.options().DisableJavascript || !isAstroPage(content) {
		return nil
	}
	found := NewFoundURLs()
	found.AddURLsFromTextArray(submatches(astroAttrRe, content, 1), sourceURL.FullURL(true, false), SourceJSURL)
	return found
}

func (p *AstroProcessor) ApplyContentChangesBeforeURLParsing(*string, ContentType, *netutil.ParsedURL) {}

func (p *AstroProcessor) ApplyContentChangesForOfflineVersion(content *string, _ ContentType, u *netutil.ParsedURL, _ bool) error {
	if p.cfg.options().DisableJavascript || !isAstroPage(*content) {
		return nil
	}

	seen := make(map[string]struct{})
	var inlineErr error
	html := replaceAllSubmatchFunc(astroScriptRe, *content, func(g []string) string {
		if inlineErr != nil || !moduleTypeRe.MatchString(g[1]) {
			return g[0]
		}
		src := tagAttr(g[1], srcAttrRe)
		if src == "" {
			return g[0]
		}
		module := netutil.Parse(src, u)
		if module.Host != u.Host {
			return g[0]
		}
		code, err := p.inlineModule(module, u, 0)
		if err != nil {
			inlineErr = err
			return g[0]
		}
		if code == "" {
			return g[0]
		}
		hash := contentHash(code)
		if _, dup := seen[hash]; dup {
			return ""
		}
		seen[hash] = struct{}{}
		return `<script type="module">` + code + `</script>`
	})
	if inlineErr != nil {
		return fmt.Errorf("%s: %w", u.FullURL(true, false), inlineErr)
	}
	*content = html
	return nil
}

// inlineModule returns the body of module with its side-effect imports
// inlined. It returns "" when the module was never fetched.
func (p *AstroProcessor) inlineModule(module, page *netutil.ParsedURL, depth int) (string, error) {
	if limit := p.cfg.options().AstroImportDepth; depth > limit {
		return "", fmt.Errorf("%w: %s nested %d levels deep", ErrImportDepthExceeded, module.FullURL(true, false), depth)
	}
	if p.cfg.Store == nil {
		return "", nil
	}
	body, err := p.cfg.Store.Load(URLIdentity(module))
	if err != nil {
		Logger.Debugf("module %s not in store: %v", module, err)
		return "", nil
	}

	code := replaceAllSubmatchFunc(moduleSpecifierRe, string(body), func(g []string) string {
		return g[1] + g[2] + p.moduleSpecifier(g[3], module, page) + g[2]
	})

	var inner error
	code = replaceAllSubmatchFunc(sideEffectImportRe, code, func(g []string) string {
		if inner != nil {
			return g[0]
		}
		dep := netutil.Parse(g[1], module)
		depCode, err := p.inlineModule(dep, page, depth+1)
		if err != nil {
			inner = err
			return g[0]
		}
		if depCode == "" {
			return `import "` + p.moduleSpecifier(g[1], module, page) + `";`
		}
		return depCode + "\n"
	})
	if inner != nil {
		return "", inner
	}
	return code, nil
}

// moduleSpecifier rewrites specifier, written relative to module, so it works
// from inside the page it gets inlined into.
func (p *AstroProcessor) moduleSpecifier(specifier string, module, page *netutil.ParsedURL) string {
	bare := !strings.HasPrefix(specifier, ".") && !strings.HasPrefix(specifier, "/") && !strings.Contains(specifier, "://")
	if bare || p.cfg.options().IsIgnored(specifier) {
		return specifier
	}
	rel := p.cfg.relativeURL(specifier, module, page, offline.AttributeScript)
	if !strings.HasPrefix(rel, ".") && !strings.Contains(rel, "://") {
		rel = "./" + rel
	}
	return rel
}

func isAstroPage(content string) bool {
	return strings.Contains(content, "astro-island") || strings.Contains(content, "/_astro/") ||
		strings.Contains(content, "component-url")
}
