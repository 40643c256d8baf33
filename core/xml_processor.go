package core

import (
	"regexp"
	"strings"

	"github.com/jaeles-project/sitemirror/internal/netutil"
	sitemap "github.com/oxffaa/gopher-parse-sitemap"
)

var sitemapLocRe = regexp.MustCompile(`(?is)<loc>\s*(?:<!\[CDATA\[)?\s*(.*?)\s*(?:\]\]>)?\s*</loc>`)

// XMLProcessor reads sitemaps and sitemap indexes.
type XMLProcessor struct {
	cfg ProcessorConfig
}

func NewXMLProcessor(cfg ProcessorConfig) *XMLProcessor {
	return &XMLProcessor{cfg: cfg}
}

func (p *XMLProcessor) Name() string {
	return "XmlProcessor"
}

func (p *XMLProcessor) IsContentTypeRelevant(ct ContentType) bool {
	return ct == ContentTypeXML
}

func (p *XMLProcessor) FindURLs(content string, sourceURL *netutil.ParsedURL) *FoundURLs {
	source := sourceURL.FullURL(true, false)

	switch {
	case strings.Contains(content, "<sitemapindex"):
		found := NewFoundURLs()
		var nested []string
		for _, loc := range p.indexLocations(content) {
			target := netutil.Parse(loc, sourceURL)
			if target.EstimateExtension() != "xml" {
				Logger.Warnf("sitemap index %s references non-xml sitemap %s, not following", source, loc)
				p.cfg.reportSkipped(target.FullURL(true, false), SkipNotFollowed, source, SourceSitemap)
				continue
			}
			nested = append(nested, loc)
		}
		found.AddURLsFromTextArray(nested, source, SourceSitemap)
		return found

	case strings.Contains(content, "<urlset"):
		found := NewFoundURLs()
		found.AddURLsFromTextArray(p.locations(content), source, SourceSitemap)
		return found
	}
	return nil
}

func (p *XMLProcessor) locations(content string) []string {
	var locs []string
	err := sitemap.Parse(strings.NewReader(content), func(e sitemap.Entry) error {
		locs = append(locs, e.GetLocation())
		return nil
	})
	if err != nil {
		Logger.Debugf("sitemap parse failed, falling back to <loc> scan: %v", err)
		return submatches(sitemapLocRe, content, 1)
	}
	return locs
}

func (p *XMLProcessor) indexLocations(content string) []string {
	var locs []string
	err := sitemap.ParseIndex(strings.NewReader(content), func(e sitemap.IndexEntry) error {
		locs = append(locs, e.GetLocation())
		return nil
	})
	if err != nil {
		Logger.Debugf("sitemap index parse failed, falling back to <loc> scan: %v", err)
		return submatches(sitemapLocRe, content, 1)
	}
	return locs
}

func (p *XMLProcessor) ApplyContentChangesBeforeURLParsing(*string, ContentType, *netutil.ParsedURL) {}

func (p *XMLProcessor) ApplyContentChangesForOfflineVersion(*string, ContentType, *netutil.ParsedURL, bool) error {
	return nil
}
