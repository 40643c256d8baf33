package core

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/jaeles-project/sitemirror/internal/offline"
)

// attrPattern matches attribute attrs on the tags named by tags. The value
// lands in group 1, 2 or 3 depending on its quoting.
func attrPattern(tags, attrs string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)<(?:` + tags + `)(?:\s[^>]*?)?\s(?:` + attrs + `)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
}

var (
	anchorHrefRe   = attrPattern(`a|area`, `href`)
	imgSrcRe       = attrPattern(`img`, `src`)
	inputSrcRe     = attrPattern(`input`, `src`)
	srcsetRe       = attrPattern(`img|source|link`, `srcset|imagesrcset`)
	audioSrcRe     = attrPattern(`audio`, `src`)
	videoSrcRe     = attrPattern(`video`, `src`)
	videoPosterRe  = attrPattern(`video`, `poster`)
	sourceSrcRe    = attrPattern(`source|track`, `src`)
	scriptSrcRe    = attrPattern(`script`, `src`)
	inlineSrcRe    = regexp.MustCompile(`\.src\s*=\s*["']([^"']+)["']`)
	nextChunkRe    = regexp.MustCompile(`["'(]([^"'()\s]*_next/static/[^"'()\s]+\.js)`)
	linkTagRe      = regexp.MustCompile(`(?is)<link\s[^>]*>`)
	htmlTagRe      = regexp.MustCompile(`(?is)<([a-z][a-z0-9:-]*)(\s[^>]*)>`)
	baseTagRe      = regexp.MustCompile(`(?is)<base\s[^>]*>`)
	headOpenRe     = regexp.MustCompile(`(?i)<head(?:\s[^>]*)?>`)
	bodyCloseRe    = regexp.MustCompile(`(?i)</body>`)
	jsIdentifierRe = regexp.MustCompile(`^[a-zA-Z_$][\w$]*(?:\.[a-zA-Z_$][\w$]*)+$`)

	hrefAttrRe = singleAttrPattern(`href`)
	relAttrRe  = singleAttrPattern(`rel`)
	asAttrRe   = singleAttrPattern(`as`)
)

// singleAttrPattern matches one attribute inside an already isolated tag.
func singleAttrPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\s` + name + `\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
}

// offline rewrite patterns
var (
	urlAttrRe     = regexp.MustCompile(`(?i)(\s(?:href|src|poster|component-url|renderer-url)\s*=\s*)(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
	srcsetAttrRe  = regexp.MustCompile(`(?i)(\s(srcset|imagesrcset)\s*=\s*)(?:"([^"]*)"|'([^']*)')`)
	styleAttrRe   = regexp.MustCompile(`(?i)(\sstyle\s*=\s*)(?:"([^"]*)"|'([^']*)')`)
	metaRefreshRe = regexp.MustCompile(`(?i)(content\s*=\s*["']\s*\d*\s*;\s*url\s*=\s*['"]?)([^"'>\s]+)`)
	styleBlockRe  = regexp.MustCompile(`(?is)(<style\b[^>]*>)(.*?)(</style>)`)

	scriptBlockRe      = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	eventHandlerRe     = regexp.MustCompile(`(?i)\son[a-z]+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	javascriptHrefRe   = regexp.MustCompile(`(?i)(\shref\s*=\s*)(["'])\s*javascript:[^"']*["']`)
	styleAttrStripRe   = regexp.MustCompile(`(?i)\sstyle\s*=\s*(?:"[^"]*"|'[^']*')`)
	srcsetAttrStripRe  = regexp.MustCompile(`(?i)\s(?:srcset|imagesrcset)\s*=\s*(?:"[^"]*"|'[^']*')`)
	imgSrcReplaceRe    = regexp.MustCompile(`(?i)(\ssrc\s*=\s*)(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	classAttrReplaceRe = regexp.MustCompile(`(?i)(\sclass\s*=\s*["'])`)
)

var downloadableExtensions = map[string]struct{}{
	"pdf": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "ppt": {}, "pptx": {}, "odt": {}, "ods": {},
	"zip": {}, "gz": {}, "tgz": {}, "rar": {}, "7z": {}, "tar": {}, "bz2": {}, "xz": {},
	"exe": {}, "msi": {}, "dmg": {}, "iso": {}, "apk": {}, "csv": {}, "rtf": {},
}

const (
	disabledImageClass = "sitemirror-disabled-image"
	disabledImageData  = "data:image/gif;base64,R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7"

	anchorGuardScript = `<script>document.addEventListener("click",function(e){var a=e.target&&e.target.closest?e.target.closest("a[href]"):null;if(!a||a.target==="_blank"){return}e.stopImmediatePropagation()},true);</script>`
)

// HTMLProcessor discovers every reference an HTML page makes and rewrites
// the page for offline browsing.
type HTMLProcessor struct {
	cfg ProcessorConfig

	// per-host same-origin patterns
	origins sync.Map
}

func NewHTMLProcessor(cfg ProcessorConfig) *HTMLProcessor {
	return &HTMLProcessor{cfg: cfg}
}

func (p *HTMLProcessor) Name() string {
	return "HtmlProcessor"
}

func (p *HTMLProcessor) IsContentTypeRelevant(ct ContentType) bool {
	return ct == ContentTypeHTML
}

func (p *HTMLProcessor) FindURLs(content string, sourceURL *netutil.ParsedURL) *FoundURLs {
	opts := p.cfg.options()
	base := documentBase(content, sourceURL)
	found := NewFoundURLs()

	p.findHrefs(content, sourceURL, base, found)
	if !opts.DisableFonts {
		p.findFonts(content, sourceURL, base, found)
	}
	if !opts.DisableImages {
		p.findImages(content, sourceURL, base, found)
	}
	p.findMedia(content, sourceURL, base, found)
	if !opts.DisableJavascript {
		p.findScripts(content, sourceURL, base, found)
	}
	if !opts.DisableStyles {
		p.findStyles(content, sourceURL, base, found)
	}
	return found
}

func (p *HTMLProcessor) findHrefs(content string, page, base *netutil.ParsedURL, found *FoundURLs) {
	opts := p.cfg.options()
	if opts.SinglePage {
		return
	}
	foreign := p.cfg.InitialURL != nil && page.Host != "" && page.Host != p.cfg.InitialURL.Host
	if foreign && opts.SingleForeignPage {
		return
	}

	source := page.FullURL(true, false)
	var matches []string
	for _, raw := range attrValues(anchorHrefRe, content) {
		target := netutil.Parse(raw, base)
		if !target.IsHTTP() || strings.HasPrefix(strings.TrimSpace(raw), "#") {
			matches = append(matches, raw)
			continue
		}
		if opts.IsIgnored(raw) {
			p.cfg.reportSkipped(target.FullURL(true, false), SkipIgnored, source, SourceAHref)
			continue
		}
		if opts.DisableFiles && isDownloadable(target) {
			continue
		}
		if opts.MaxDepth > 0 && !target.IsStaticFile() && target.PathSegments() > opts.MaxDepth {
			p.cfg.reportSkipped(target.FullURL(true, false), SkipMaxDepth, source, SourceAHref)
			continue
		}
		matches = append(matches, absolutize(raw, base, page))
	}
	found.AddURLsFromTextArray(matches, source, SourceAHref)
}

func (p *HTMLProcessor) findFonts(content string, page, base *netutil.ParsedURL, found *FoundURLs) {
	source := page.FullURL(true, false)

	var fromCSS []string
	for _, raw := range submatches(cssURLRe, content, 2) {
		if fontExtRe.MatchString(raw) {
			fromCSS = append(fromCSS, absolutize(raw, base, page))
		}
	}
	found.AddURLsFromTextArray(fromCSS, source, SourceCSSURL)

	var fromLinks []string
	for _, tag := range linkTagRe.FindAllString(content, -1) {
		href := tagAttr(tag, hrefAttrRe)
		if fontExtRe.MatchString(href) || strings.EqualFold(tagAttr(tag, asAttrRe), "font") {
			fromLinks = append(fromLinks, absolutize(href, base, page))
		}
	}
	found.AddURLsFromTextArray(fromLinks, source, SourceLinkHref)
}

func (p *HTMLProcessor) findImages(content string, page, base *netutil.ParsedURL, found *FoundURLs) {
	source := page.FullURL(true, false)
	abs := func(values []string) []string {
		for i, v := range values {
			values[i] = absolutize(v, base, page)
		}
		return values
	}

	found.AddURLsFromTextArray(abs(attrValues(imgSrcRe, content)), source, SourceImgSrc)
	found.AddURLsFromTextArray(abs(attrValues(inputSrcRe, content)), source, SourceInputSrc)

	var srcset []string
	for _, value := range attrValues(srcsetRe, content) {
		for _, candidate := range SplitSrcset(value) {
			srcset = append(srcset, srcsetURL(candidate))
		}
	}
	found.AddURLsFromTextArray(abs(srcset), source, SourceImgSrcset)

	var links []string
	for _, tag := range linkTagRe.FindAllString(content, -1) {
		if href := tagAttr(tag, hrefAttrRe); imageExtRe.MatchString(href) {
			links = append(links, href)
		}
	}
	found.AddURLsFromTextArray(abs(links), source, SourceLinkHref)

	var fromCSS []string
	for _, raw := range submatches(cssURLRe, content, 2) {
		if imageExtRe.MatchString(raw) {
			fromCSS = append(fromCSS, raw)
		}
	}
	found.AddURLsFromTextArray(abs(fromCSS), source, SourceCSSURL)
}

func (p *HTMLProcessor) findMedia(content string, page, base *netutil.ParsedURL, found *FoundURLs) {
	source := page.FullURL(true, false)
	add := func(re *regexp.Regexp, kind URLSource) {
		var matches []string
		for _, v := range attrValues(re, content) {
			matches = append(matches, absolutize(v, base, page))
		}
		found.AddURLsFromTextArray(matches, source, kind)
	}
	add(audioSrcRe, SourceAudioSrc)
	add(videoSrcRe, SourceVideoSrc)
	add(videoPosterRe, SourceVideoSrc)
	add(sourceSrcRe, SourceSourceSrc)
}

func (p *HTMLProcessor) findScripts(content string, page, base *netutil.ParsedURL, found *FoundURLs) {
	source := page.FullURL(true, false)

	var scripts []string
	for _, v := range attrValues(scriptSrcRe, content) {
		scripts = append(scripts, absolutize(v, base, page))
	}
	found.AddURLsFromTextArray(scripts, source, SourceScriptSrc)

	var links []string
	for _, tag := range linkTagRe.FindAllString(content, -1) {
		href := tagAttr(tag, hrefAttrRe)
		ext := netutil.Parse(href, base).EstimateExtension()
		if ext == "js" || ext == "mjs" || ext == "json" || strings.EqualFold(tagAttr(tag, asAttrRe), "script") {
			links = append(links, absolutize(href, base, page))
		}
	}
	found.AddURLsFromTextArray(links, source, SourceLinkHref)

	var inline []string
	for _, v := range submatches(inlineSrcRe, content, 1) {
		inline = append(inline, absolutize(v, base, page))
	}
	found.AddURLsFromTextArray(inline, source, SourceInlineScriptSrc)

	if strings.Contains(content, "_next/") {
		var chunks []string
		for _, chunk := range submatches(nextChunkRe, content, 1) {
			chunks = append(chunks, nextChunkURL(chunk, page))
		}
		found.AddURLsFromTextArray(chunks, source, SourceJSURL)
	}
}

// nextChunkURL rebuilds a chunk path the NextJS runtime keeps in pieces.
func nextChunkURL(chunk string, page *netutil.ParsedURL) string {
	lower := strings.ToLower(chunk)
	switch {
	case strings.HasPrefix(chunk, "//"):
		scheme := page.Scheme
		if scheme == "" {
			scheme = "https"
		}
		return scheme + ":" + chunk
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return chunk
	case strings.HasPrefix(chunk, "/"):
		return chunk
	}
	return "/" + chunk[strings.Index(chunk, "_next/"):]
}

func (p *HTMLProcessor) findStyles(content string, page, base *netutil.ParsedURL, found *FoundURLs) {
	var matches []string
	for _, tag := range linkTagRe.FindAllString(content, -1) {
		href := tagAttr(tag, hrefAttrRe)
		if href == "" {
			continue
		}
		rel := strings.ToLower(tagAttr(tag, relAttrRe))
		if strings.Contains(rel, "stylesheet") || cssExtRe.MatchString(href) || strings.EqualFold(tagAttr(tag, asAttrRe), "style") {
			matches = append(matches, absolutize(href, base, page))
		}
	}
	found.AddURLsFromTextArray(matches, page.FullURL(true, false), SourceLinkHref)
}

func (p *HTMLProcessor) ApplyContentChangesBeforeURLParsing(*string, ContentType, *netutil.ParsedURL) {}

func (p *HTMLProcessor) ApplyContentChangesForOfflineVersion(content *string, _ ContentType, u *netutil.ParsedURL, removeUnwanted bool) error {
	html := *content
	base := documentBase(html, u)

	html = p.stripSameOrigin(html, u)
	html = p.stripDisabledFeatures(html)
	html = baseTagRe.ReplaceAllString(html, "")
	html = p.rewriteTags(html, base, u)
	html = replaceAllSubmatchFunc(styleBlockRe, html, func(g []string) string {
		return g[1] + rewriteCSSURLs(g[2], base, u, p.cfg) + g[3]
	})
	if removeUnwanted {
		html = removeUnwantedCode(html)
	}
	html = p.injectFrameworkSupport(html, u)

	*content = html
	return nil
}

// stripSameOrigin turns absolute references to the page's own origin into
// root-relative ones so the depth math below only sees one form. Only
// attribute, quoted and url( contexts are touched; srcset candidates after
// the first are rewritten per candidate by rewriteTags.
func (p *HTMLProcessor) stripSameOrigin(html string, u *netutil.ParsedURL) string {
	host := u.HostWithPort()
	if host == "" || !strings.Contains(html, "//"+host) {
		return html
	}
	patterns := p.originPatterns(host)
	html = patterns[0].ReplaceAllString(html, "${1}/")
	return patterns[1].ReplaceAllString(html, "${1}/${2}")
}

func (p *HTMLProcessor) originPatterns(host string) [2]*regexp.Regexp {
	if cached, ok := p.origins.Load(host); ok {
		return cached.([2]*regexp.Regexp)
	}
	quoted := regexp.QuoteMeta(host)
	patterns := [2]*regexp.Regexp{
		regexp.MustCompile(`(?i)(["'(=])(?:https?:)?//` + quoted + `/`),
		regexp.MustCompile(`(?i)(["'(=])(?:https?:)?//` + quoted + `(["'])`),
	}
	p.origins.Store(host, patterns)
	return patterns
}

func (p *HTMLProcessor) stripDisabledFeatures(html string) string {
	opts := p.cfg.options()

	if opts.DisableJavascript {
		html = scriptBlockRe.ReplaceAllString(html, "")
		html = p.dropLinks(html, func(tag, href string) bool {
			ext := netutil.Parse(href, nil).EstimateExtension()
			return ext == "js" || ext == "mjs" || strings.EqualFold(tagAttr(tag, asAttrRe), "script") ||
				strings.Contains(strings.ToLower(tagAttr(tag, relAttrRe)), "modulepreload")
		})
		html = replaceAllSubmatchFunc(htmlTagRe, html, func(g []string) string {
			attrs := eventHandlerRe.ReplaceAllString(g[2], "")
			attrs = javascriptHrefRe.ReplaceAllString(attrs, `${1}${2}#${2}`)
			return "<" + g[1] + attrs + ">"
		})
	}
	if opts.DisableStyles {
		html = styleBlockRe.ReplaceAllString(html, "")
		html = p.dropLinks(html, func(tag, href string) bool {
			return strings.Contains(strings.ToLower(tagAttr(tag, relAttrRe)), "stylesheet") || cssExtRe.MatchString(href)
		})
		html = replaceAllSubmatchFunc(htmlTagRe, html, func(g []string) string {
			return "<" + g[1] + styleAttrStripRe.ReplaceAllString(g[2], "") + ">"
		})
	}
	if opts.DisableFonts {
		html = p.dropLinks(html, func(tag, href string) bool {
			return fontExtRe.MatchString(href) || strings.EqualFold(tagAttr(tag, asAttrRe), "font")
		})
	}
	if opts.DisableImages {
		html = replaceAllSubmatchFunc(htmlTagRe, html, func(g []string) string {
			switch strings.ToLower(g[1]) {
			case "img":
				return "<" + g[1] + disableImage(g[2]) + ">"
			case "source":
				return "<" + g[1] + srcsetAttrStripRe.ReplaceAllString(g[2], "") + ">"
			}
			return g[0]
		})
	}
	if opts.DisableFonts || opts.DisableImages {
		html = stripDisabledCSS(html, opts)
	}
	return html
}

// disableImage points an <img> at a transparent placeholder and marks it
// so the page can still be styled around the missing image.
func disableImage(attrs string) string {
	attrs = srcsetAttrStripRe.ReplaceAllString(attrs, "")
	placeholder := ` src="` + disabledImageData + `"`
	if imgSrcReplaceRe.MatchString(attrs) {
		attrs = imgSrcReplaceRe.ReplaceAllLiteralString(attrs, placeholder)
	} else {
		attrs = placeholder + attrs
	}
	if classAttrReplaceRe.MatchString(attrs) {
		return classAttrReplaceRe.ReplaceAllString(attrs, "${1}"+disabledImageClass+" ")
	}
	return ` class="` + disabledImageClass + `"` + attrs
}

func (p *HTMLProcessor) dropLinks(html string, drop func(tag, href string) bool) string {
	return linkTagRe.ReplaceAllStringFunc(html, func(tag string) string {
		if drop(tag, tagAttr(tag, hrefAttrRe)) {
			return ""
		}
		return tag
	})
}

// rewriteTags converts every URL-bearing attribute to its offline form.
func (p *HTMLProcessor) rewriteTags(html string, base, page *netutil.ParsedURL) string {
	return replaceAllSubmatchFunc(htmlTagRe, html, func(g []string) string {
		name := strings.ToLower(g[1])
		attrs := g[2]

		attrs = replaceAllSubmatchFunc(urlAttrRe, attrs, func(a []string) string {
			quote, value := `"`, a[2]
			switch {
			case a[3] != "":
				quote, value = `'`, a[3]
			case a[4] != "":
				value = a[4]
				if jsIdentifierRe.MatchString(value) && !netutil.Parse(value, nil).IsStaticFile() {
					return a[0]
				}
			case a[2] == "":
				return a[0]
			}
			attribute := strings.ToLower(strings.TrimSpace(strings.TrimRight(a[1], "= \t\n")))
			rewritten, ok := p.rewriteValue(value, base, page, referenceKind(name, attribute, g[0]))
			if !ok {
				return a[0]
			}
			return a[1] + quote + rewritten + quote
		})

		attrs = replaceAllSubmatchFunc(srcsetAttrRe, attrs, func(a []string) string {
			quote, value := `"`, a[3]
			if a[4] != "" {
				quote, value = `'`, a[4]
			}
			candidates := SplitSrcset(value)
			for i, candidate := range candidates {
				target := srcsetURL(candidate)
				if rewritten, ok := p.rewriteValue(target, base, page, strings.ToLower(a[2])); ok {
					candidates[i] = rewritten + candidate[len(target):]
				}
			}
			return a[1] + quote + strings.Join(candidates, ", ") + quote
		})

		attrs = replaceAllSubmatchFunc(styleAttrRe, attrs, func(a []string) string {
			quote, value := `"`, a[2]
			if a[3] != "" {
				quote, value = `'`, a[3]
			}
			value = strings.ReplaceAll(value, "&quot;", "'")
			return a[1] + quote + rewriteCSSURLs(value, base, page, p.cfg) + quote
		})

		if name == "meta" && strings.Contains(strings.ToLower(attrs), "refresh") {
			attrs = replaceAllSubmatchFunc(metaRefreshRe, attrs, func(a []string) string {
				if rewritten, ok := p.rewriteValue(a[2], base, page, "href"); ok {
					return a[1] + rewritten
				}
				return a[0]
			})
		}
		return "<" + g[1] + attrs + ">"
	})
}

// referenceKind names what a URL attribute points at, so a target without
// an extension gets the one its file is written with.
func referenceKind(tag, attribute, fullTag string) string {
	switch attribute {
	case "poster":
		return offline.AttributeImage
	case "component-url", "renderer-url":
		return offline.AttributeScript
	case "src":
		switch tag {
		case "img", "input", "source":
			return offline.AttributeImage
		case "script":
			return offline.AttributeScript
		}
	case "href":
		if tag != "link" {
			break
		}
		rel := strings.ToLower(tagAttr(fullTag, relAttrRe))
		switch {
		case strings.Contains(rel, "stylesheet"):
			return offline.AttributeStylesheet
		case strings.Contains(rel, "icon"):
			return offline.AttributeImage
		case strings.Contains(rel, "modulepreload"):
			return offline.AttributeScript
		}
	}
	return attribute
}

func (p *HTMLProcessor) rewriteValue(raw string, base, page *netutil.ParsedURL, attribute string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" || strings.HasPrefix(value, "#") || p.cfg.options().IsIgnored(value) {
		return raw, false
	}
	value = strings.ReplaceAll(value, "&amp;", "&")
	return p.cfg.relativeURL(value, base, page, attribute), true
}

// injectFrameworkSupport adds the depth global and the anchor guard to
// pages built by client-side routers that break under file://.
func (p *HTMLProcessor) injectFrameworkSupport(html string, u *netutil.ParsedURL) string {
	if strings.Contains(html, DepthVariable) || !usesClientRouter(html) {
		return html
	}
	depth := fmt.Sprintf("<script>var %s = %d;</script>", DepthVariable, p.cfg.offlineDepth(u))
	if loc := headOpenRe.FindStringIndex(html); loc != nil {
		html = html[:loc[1]] + depth + html[loc[1]:]
	} else {
		html = depth + html
	}
	if loc := bodyCloseRe.FindStringIndex(html); loc != nil {
		return html[:loc[0]] + anchorGuardScript + html[loc[0]:]
	}
	return html + anchorGuardScript
}

func usesClientRouter(html string) bool {
	return strings.Contains(html, "_next/") || strings.Contains(html, "/_astro/") || strings.Contains(html, "astro-island")
}

// documentBase honours a <base href> and otherwise returns page itself.
func documentBase(content string, page *netutil.ParsedURL) *netutil.ParsedURL {
	if !strings.Contains(strings.ToLower(content), "<base") {
		return page
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return page
	}
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return page
	}
	return netutil.Parse(href, page)
}

// absolutize resolves raw against a <base href> when the page has one.
func absolutize(raw string, base, page *netutil.ParsedURL) string {
	if base == page || strings.HasPrefix(strings.TrimSpace(raw), "#") {
		return raw
	}
	target := netutil.Parse(strings.TrimSpace(raw), base)
	if !target.IsHTTP() {
		return raw
	}
	return target.FullURL(true, true)
}

func isDownloadable(u *netutil.ParsedURL) bool {
	_, ok := downloadableExtensions[u.EstimateExtension()]
	return ok
}

func attrValues(re *regexp.Regexp, content string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		if v := firstGroup(m); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func tagAttr(tag string, re *regexp.Regexp) string {
	return firstGroup(re.FindStringSubmatch(tag))
}

func firstGroup(m []string) string {
	for i := 1; i < len(m); i++ {
		if v := strings.TrimSpace(m[i]); v != "" {
			return v
		}
	}
	return ""
}
