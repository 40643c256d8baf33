package core

import (
	"errors"
	"strings"

	"github.com/jaeles-project/sitemirror/internal/netutil"
	"golang.org/x/net/html"
)

var ErrNotRequestable = errors.New("not a requestable url")

// URLSource records which construct a reference was found in.
type URLSource int

const (
	SourceInitURL URLSource = iota + 1
	SourceAHref
	SourceImgSrc
	SourceImgSrcset
	SourceInputSrc
	SourceSourceSrc
	SourceVideoSrc
	SourceAudioSrc
	SourceScriptSrc
	SourceInlineScriptSrc
	SourceLinkHref
	SourceCSSURL
	SourceJSURL
	SourceRedirect
	SourceSitemap
)

var sourceNames = map[URLSource]string{
	SourceInitURL:         "init-url",
	SourceAHref:           "a-href",
	SourceImgSrc:          "img-src",
	SourceImgSrcset:       "img-srcset",
	SourceInputSrc:        "input-src",
	SourceSourceSrc:       "source-src",
	SourceVideoSrc:        "video-src",
	SourceAudioSrc:        "audio-src",
	SourceScriptSrc:       "script-src",
	SourceInlineScriptSrc: "inline-script-src",
	SourceLinkHref:        "link-href",
	SourceCSSURL:          "css-url",
	SourceJSURL:           "js-url",
	SourceRedirect:        "redirect",
	SourceSitemap:         "sitemap",
}

func (s URLSource) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s URLSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	escapedSpaces = strings.NewReplacer(`\u0020`, " ", `\x20`, " ", `\/`, "/")
	noiseCutset   = " \t\r\n\"'`\\"
)

var nonRequestablePrefixes = []string{"data:", "javascript:", "mailto:", "tel:", "about:", "blob:"}

// FoundURL is one reference discovered in fetched content.
type FoundURL struct {
	URL       string    `json:"url"`
	SourceURL string    `json:"source_url"`
	Source    URLSource `json:"source"`
}

// NewFoundURL normalizes rawURL. References that can never be fetched
// return ErrNotRequestable.
func NewFoundURL(rawURL, sourceURL string, source URLSource) (*FoundURL, error) {
	u := normalizeFoundURL(rawURL, sourceURL)
	if u == "" || strings.HasPrefix(u, "#") {
		return nil, ErrNotRequestable
	}
	lower := strings.ToLower(u)
	for _, prefix := range nonRequestablePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return nil, ErrNotRequestable
		}
	}
	return &FoundURL{URL: u, SourceURL: sourceURL, Source: source}, nil
}

func normalizeFoundURL(raw, sourceURL string) string {
	u := strings.Trim(raw, noiseCutset)
	if strings.Contains(u, "&") {
		u = html.UnescapeString(u)
	}
	u = escapedSpaces.Replace(u)
	u = strings.Trim(u, noiseCutset)
	u = strings.ReplaceAll(u, " ", "%20")
	return stripSameOrigin(u, sourceURL)
}

// stripSameOrigin removes scheme://host:port when it repeats the source's
// own origin. The scheme-relative //host form is handled too.
func stripSameOrigin(u, sourceURL string) string {
	if sourceURL == "" || !strings.Contains(u, "//") {
		return u
	}
	source := netutil.Parse(sourceURL, nil)
	if source.Host == "" {
		return u
	}

	origin := "//" + source.HostWithPort()
	lower := strings.ToLower(u)
	for _, prefix := range []string{source.Scheme + ":" + origin, origin} {
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		rest := u[len(prefix):]
		if rest == "" {
			return "/"
		}
		switch rest[0] {
		case '/':
			return rest
		case '?', '#':
			return "/" + rest
		}
	}
	return u
}

// IsIncludedAsset is false only for plain links, which are crawled as
// pages rather than pulled in as assets.
func (f *FoundURL) IsIncludedAsset() bool {
	return f.Source != SourceAHref
}

// Resolve parses the reference against the page it was found on.
func (f *FoundURL) Resolve() *netutil.ParsedURL {
	var base *netutil.ParsedURL
	if f.SourceURL != "" {
		base = netutil.Parse(f.SourceURL, nil)
	}
	return netutil.Parse(f.URL, base)
}
