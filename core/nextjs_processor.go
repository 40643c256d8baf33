package core

import (
	"regexp"
	"strings"

	"github.com/jaeles-project/sitemirror/internal/netutil"
)

var (
	nextManifestRe      = regexp.MustCompile(`_next/.*(?:_buildManifest|_ssgManifest)\.js$`)
	nextManifestChunkRe = regexp.MustCompile(`["'](static/[^"']+\.(?:js|css))["']`)
	deploymentFirstRe   = regexp.MustCompile(`\?dpl=[\w\-]+&`)
	deploymentParamRe   = regexp.MustCompile(`[?&]dpl=[\w\-]+`)
)

// nextPrefixExpr evaluates to the relative "_next/" prefix of the page the
// script runs in.
const nextPrefixExpr = `(typeof ` + DepthVariable + `!=="undefined"?"../".repeat(` + DepthVariable + `):"")+"_next/"`

type nextJSRule struct {
	contentRule
	types []ContentType
}

func (r nextJSRule) appliesTo(ct ContentType) bool {
	for _, t := range r.types {
		if t == ct {
			return true
		}
	}
	return false
}

var (
	htmlOnly   = []ContentType{ContentTypeHTML}
	scriptOnly = []ContentType{ContentTypeScript}
	htmlScript = []ContentType{ContentTypeHTML, ContentTypeScript}
	anyNext    = []ContentType{ContentTypeHTML, ContentTypeScript, ContentTypeStylesheet}
)

// nextJSRules patch the output of specific NextJS releases. Each rule is
// independent; a rule that no longer matches newer output is a no-op.
var nextJSRules = []nextJSRule{
	{contentRule{"disable-prefetch-links", regexp.MustCompile(`(?is)<link[^>]+rel=["']prefetch["'][^>]*>`), ""}, htmlOnly},
	{contentRule{"disable-router-prefetch", regexp.MustCompile(`prefetch:!0`), "prefetch:!1"}, scriptOnly},
	{contentRule{"webpack-public-path", regexp.MustCompile(`\.p\s*=\s*"/_next/"`), ".p=" + nextPrefixExpr}, scriptOnly},
	{contentRule{"asset-prefix-concat", regexp.MustCompile(`concat\(([\w$]+),\s*"/_next/`), "concat(${1}," + nextPrefixExpr + `+"`}, scriptOnly},
	{contentRule{"next-data-fetch", regexp.MustCompile(`"/_next/data/"`), "(" + nextPrefixExpr + `+"data/")`}, scriptOnly},
	{contentRule{"blank-next-data", regexp.MustCompile(`(?is)(<script[^>]+id=["']__NEXT_DATA__["'][^>]*>).*?(</script>)`), "${1}{}${2}"}, htmlOnly},
	{contentRule{"blank-flight-payload", regexp.MustCompile(`self\.__next_f\.push\(\[1,\s*"(?:[^"\\]|\\.)*"\]\)`), `self.__next_f.push([1,""])`}, htmlOnly},
	{contentRule{"asset-prefix-empty", regexp.MustCompile(`assetPrefix:"[^"]*"`), `assetPrefix:""`}, htmlScript},
	{contentRule{"asset-prefix-empty-json", regexp.MustCompile(`"assetPrefix":"[^"]*"`), `"assetPrefix":""`}, htmlScript},
	{contentRule{"deployment-id-leading", deploymentFirstRe, "?"}, anyNext},
	{contentRule{"deployment-id", deploymentParamRe, ""}, anyNext},
	{contentRule{"drop-polyfill-nomodule", regexp.MustCompile(`(?is)<script[^>]+nomodule[^>]*>\s*</script>`), ""}, htmlOnly},
}

// NextJSProcessor reconstructs chunk lists from build manifests and adapts
// NextJS runtime code to a mirror that lives below arbitrary directories.
type NextJSProcessor struct {
	cfg ProcessorConfig
}

func NewNextJSProcessor(cfg ProcessorConfig) *NextJSProcessor {
	return &NextJSProcessor{cfg: cfg}
}

func (p *NextJSProcessor) Name() string {
	return "NextJsProcessor"
}

func (p *NextJSProcessor) IsContentTypeRelevant(ct ContentType) bool {
	return ct == ContentTypeHTML || ct == ContentTypeScript || ct == ContentTypeStylesheet
}

func (p *NextJSProcessor) FindURLs(content string, sourceURL *netutil.ParsedURL) *FoundURLs {
	if p.cfg.options().DisableJavascript || !nextManifestRe.MatchString(sourceURL.Path) {
		return nil
	}
	prefix := sourceURL.Path[:strings.Index(sourceURL.Path, "_next/")+len("_next/")]

	var chunks []string
	for _, chunk := range submatches(nextManifestChunkRe, content, 1) {
		chunks = append(chunks, prefix+chunk)
	}
	found := NewFoundURLs()
	found.AddURLsFromTextArray(chunks, sourceURL.FullURL(true, false), SourceJSURL)
	return found
}

func (p *NextJSProcessor) ApplyContentChangesBeforeURLParsing(content *string, _ ContentType, _ *netutil.ParsedURL) {
	if !strings.Contains(*content, "dpl=") {
		return
	}
	s := deploymentFirstRe.ReplaceAllString(*content, "?")
	*content = deploymentParamRe.ReplaceAllString(s, "")
}

func (p *NextJSProcessor) ApplyContentChangesForOfflineVersion(content *string, ct ContentType, u *netutil.ParsedURL, _ bool) error {
	if !isNextContent(*content, u) {
		return nil
	}
	s := *content
	for _, rule := range nextJSRules {
		if rule.appliesTo(ct) {
			s = rule.apply(s)
		}
	}
	*content = s
	return nil
}

func isNextContent(content string, u *netutil.ParsedURL) bool {
	return strings.Contains(u.Path, "/_next/") || strings.Contains(content, "_next/") ||
		strings.Contains(content, "__NEXT_DATA__") || strings.Contains(content, "self.__next_f")
}
