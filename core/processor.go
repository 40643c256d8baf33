package core

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/jaeles-project/sitemirror/internal/offline"
)

var (
	// ErrContentDiscarded is returned by a processor that could not produce
	// usable content. The manager stops processing that item.
	ErrContentDiscarded    = errors.New("content discarded by processor")
	ErrImportDepthExceeded = errors.New("module import depth exceeded")
)

// ContentProcessor finds references in one kind of content and rewrites
// that content for the offline mirror.
type ContentProcessor interface {
	Name() string
	IsContentTypeRelevant(ct ContentType) bool
	// FindURLs returns nil when the content was not processed at all and a
	// possibly empty batch otherwise.
	FindURLs(content string, sourceURL *netutil.ParsedURL) *FoundURLs
	ApplyContentChangesBeforeURLParsing(content *string, ct ContentType, u *netutil.ParsedURL)
	ApplyContentChangesForOfflineVersion(content *string, ct ContentType, u *netutil.ParsedURL, removeUnwantedCode bool) error
}

// ContentStore hands out previously fetched bodies by URL identity.
type ContentStore interface {
	Save(id string, content []byte) error
	Load(id string) ([]byte, error)
}

// URLIdentity is the stable store key of a URL.
func URLIdentity(u *netutil.ParsedURL) string {
	sum := sha1.Sum([]byte(netutil.CanonicalKey(u)))
	return hex.EncodeToString(sum[:])[:16]
}

type SkipReason string

const (
	SkipMaxDepth       SkipReason = "max-depth"
	SkipNotFollowed    SkipReason = "not-followed"
	SkipIgnored        SkipReason = "ignored"
	SkipDisallowedHost SkipReason = "disallowed-host"
)

// SkippedSink receives references that were found but deliberately not
// queued.
type SkippedSink interface {
	ReportSkipped(target string, reason SkipReason, sourceURL string, source URLSource)
}

type SkippedURL struct {
	URL       string     `json:"url"`
	Reason    SkipReason `json:"reason"`
	SourceURL string     `json:"source_url"`
	Source    URLSource  `json:"source"`
}

// SkippedCollector is a SkippedSink that keeps everything in memory.
type SkippedCollector struct {
	mu      sync.Mutex
	entries []SkippedURL
}

func NewSkippedCollector() *SkippedCollector {
	return &SkippedCollector{}
}

func (c *SkippedCollector) ReportSkipped(target string, reason SkipReason, sourceURL string, source URLSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, SkippedURL{URL: target, Reason: reason, SourceURL: sourceURL, Source: source})
}

func (c *SkippedCollector) Entries() []SkippedURL {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SkippedURL(nil), c.entries...)
}

// ProcessorConfig is the read-only context shared by all processors.
type ProcessorConfig struct {
	Options    *Options
	InitialURL *netutil.ParsedURL
	Store      ContentStore
	Skipped    SkippedSink
}

func (c ProcessorConfig) options() *Options {
	if c.Options == nil {
		return DefaultOptions()
	}
	return c.Options
}

func (c ProcessorConfig) reportSkipped(target string, reason SkipReason, sourceURL string, source URLSource) {
	if c.Skipped != nil {
		c.Skipped.ReportSkipped(target, reason, sourceURL, source)
	}
}

// relativeURL rewrites one reference found on page. Relative references
// are resolved against resolveBase, which differs from page only when the
// document carries a <base href>.
func (c ProcessorConfig) relativeURL(raw string, resolveBase, page *netutil.ParsedURL, attribute string) string {
	opts := c.options()
	target := netutil.Parse(raw, resolveBase)
	initial := c.InitialURL
	if initial == nil {
		initial = page
	}
	conv := offline.NewConverter(initial, page, target, opts.Predicates(), attribute, opts.QueryReplacements())
	rel := conv.ConvertURLToRelative(true)
	if trail := conv.Trail(); len(trail) > 0 {
		Logger.Debugf("offline %s -> %s on %s: %s", raw, rel, page, strings.Join(trail, "; "))
	}
	return rel
}

// offlineDepth is how many directories below the mirror root the offline
// file of page sits.
func (c ProcessorConfig) offlineDepth(page *netutil.ParsedURL) int {
	initial := c.InitialURL
	if initial == nil {
		return page.Depth()
	}
	file := offline.FilePathForURL(initial, page, "", c.options().QueryReplacements())
	return strings.Count(file, "/")
}

// submatches collects group n of every match of re in content.
func submatches(re *regexp.Regexp, content string, n int) []string {
	matches := re.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if n < len(m) && m[n] != "" {
			out = append(out, m[n])
		}
	}
	return out
}

var srcsetSeparator = regexp.MustCompile(`,\s+`)

// SplitSrcset splits a srcset value into candidates. Only a comma followed
// by whitespace separates candidates since URLs may contain bare commas.
func SplitSrcset(value string) []string {
	var out []string
	for _, candidate := range srcsetSeparator.Split(strings.TrimSpace(value), -1) {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" {
			out = append(out, candidate)
		}
	}
	return out
}

// srcsetURL returns the URL part of one srcset candidate.
func srcsetURL(candidate string) string {
	if i := strings.IndexAny(candidate, " \t\n"); i >= 0 {
		return candidate[:i]
	}
	return candidate
}

func contentHash(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// replaceAllSubmatchFunc is ReplaceAllStringFunc with access to the
// submatches of each match.
func replaceAllSubmatchFunc(re *regexp.Regexp, s string, fn func(groups []string) string) string {
	indexes := re.FindAllStringSubmatchIndex(s, -1)
	if len(indexes) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, loc := range indexes {
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = s[loc[2*i]:loc[2*i+1]]
			}
		}
		b.WriteString(s[last:loc[0]])
		b.WriteString(fn(groups))
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// contentRule is one narrow, independently testable rewrite.
type contentRule struct {
	name        string
	pattern     *regexp.Regexp
	replacement string
}

func (r contentRule) apply(content string) string {
	return r.pattern.ReplaceAllString(content, r.replacement)
}
