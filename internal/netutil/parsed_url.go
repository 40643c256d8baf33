package netutil

import (
	"net"
	"regexp"
	"strconv"
	"strings"

	whatwgUrl "github.com/nlnwa/whatwg-url/url"
	"golang.org/x/net/publicsuffix"
)

var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

var (
	schemePrefix = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.\-]*):`)
	extensionRe  = regexp.MustCompile(`\.([a-zA-Z0-9]{1,10})$`)
	hasLetterRe  = regexp.MustCompile(`[a-zA-Z]`)
)

var staticExtensions = map[string]struct{}{
	"css": {}, "js": {}, "mjs": {}, "json": {}, "map": {}, "xml": {}, "txt": {},
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "svg": {}, "webp": {}, "avif": {},
	"ico": {}, "bmp": {}, "tif": {}, "tiff": {},
	"woff": {}, "woff2": {}, "ttf": {}, "otf": {}, "eot": {},
	"mp3": {}, "mp4": {}, "m4a": {}, "webm": {}, "ogg": {}, "ogv": {}, "wav": {}, "avi": {}, "mov": {},
	"pdf": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "ppt": {}, "pptx": {}, "odt": {},
	"zip": {}, "gz": {}, "tgz": {}, "rar": {}, "7z": {}, "tar": {}, "csv": {}, "rtf": {},
}

// ParsedURL is one URL split into its parts. Discovery code treats it as
// read-only; offline conversion works on a Clone.
type ParsedURL struct {
	Scheme         string
	Host           string
	Port           int // 0 when absent or the scheme default
	Path           string
	Query          string
	Fragment       string
	Extension      string
	Domain2ndLevel string

	// Debug keeps the reasons passed to the mutators.
	Debug bool

	raw   string
	trail []string
}

// Parse resolves raw against base the way a browser resolves an <a href>.
// It never fails: input the resolver rejects is split on a best-effort basis.
func Parse(raw string, base *ParsedURL) *ParsedURL {
	trimmed := strings.TrimSpace(raw)

	var parsed *ParsedURL
	switch {
	case base != nil && base.Host != "":
		if u, err := urlParser.ParseRef(base.FullURL(true, false), trimmed); err == nil {
			parsed = fromWhatwg(u)
		}
	case strings.HasPrefix(trimmed, "//"):
		if u, err := urlParser.Parse("http:" + trimmed); err == nil {
			parsed = fromWhatwg(u)
			parsed.Scheme = ""
		}
	case schemePrefix.MatchString(trimmed):
		if u, err := urlParser.Parse(trimmed); err == nil {
			parsed = fromWhatwg(u)
		}
	}
	if parsed == nil {
		parsed = bestEffort(trimmed)
	}

	parsed.raw = raw
	parsed.Extension = parsed.EstimateExtension()
	parsed.Domain2ndLevel = registrableDomain(parsed.Host)
	return parsed
}

func fromWhatwg(u *whatwgUrl.Url) *ParsedURL {
	p := &ParsedURL{
		Scheme:   strings.ToLower(strings.TrimSuffix(u.Protocol(), ":")),
		Host:     strings.ToLower(u.Hostname()),
		Path:     u.Pathname(),
		Query:    strings.TrimPrefix(u.Search(), "?"),
		Fragment: strings.TrimPrefix(u.Hash(), "#"),
	}
	if port := u.Port(); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			p.Port = n
		}
	}
	return p
}

func bestEffort(raw string) *ParsedURL {
	p := &ParsedURL{}
	rest := raw
	if i := strings.Index(rest, "#"); i >= 0 {
		p.Fragment = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.Index(rest, "?"); i >= 0 {
		p.Query = rest[i+1:]
		rest = rest[:i]
	}
	if m := schemePrefix.FindStringSubmatch(rest); m != nil {
		p.Scheme = strings.ToLower(m[1])
		rest = rest[len(m[0]):]
	}
	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		hostPart := rest
		if i := strings.Index(rest, "/"); i >= 0 {
			hostPart = rest[:i]
			rest = rest[i:]
		} else {
			rest = ""
		}
		host, port, err := net.SplitHostPort(hostPart)
		if err != nil {
			host = hostPart
		} else if n, err := strconv.Atoi(port); err == nil && !isDefaultPort(p.Scheme, n) {
			p.Port = n
		}
		p.Host = strings.ToLower(host)
	}
	p.Path = strings.ReplaceAll(rest, "\\", "/")
	return p
}

func registrableDomain(host string) string {
	if host == "" || net.ParseIP(strings.Trim(host, "[]")) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

func isDefaultPort(scheme string, port int) bool {
	return (scheme == "http" && port == 80) || (scheme == "https" && port == 443)
}

// Raw returns the string Parse was called with.
func (p *ParsedURL) Raw() string {
	return p.raw
}

// HostWithPort returns host[:port], omitting default ports.
func (p *ParsedURL) HostWithPort() string {
	if p.Port == 0 {
		return p.Host
	}
	return p.Host + ":" + strconv.Itoa(p.Port)
}

func (p *ParsedURL) FullURL(includeSchemeAndHost, includeFragment bool) string {
	var b strings.Builder
	if includeSchemeAndHost {
		switch {
		case p.Host != "":
			if p.Scheme != "" {
				b.WriteString(p.Scheme)
				b.WriteByte(':')
			}
			b.WriteString("//")
			b.WriteString(p.HostWithPort())
		case p.Scheme != "":
			b.WriteString(p.Scheme)
			b.WriteByte(':')
		}
	}
	b.WriteString(p.Path)
	if p.Query != "" {
		b.WriteByte('?')
		b.WriteString(p.Query)
	}
	if includeFragment && p.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(p.Fragment)
	}
	return b.String()
}

func (p *ParsedURL) String() string {
	return p.FullURL(true, true)
}

// EstimateExtension returns the lowercase extension of the last path
// segment, or "" when there is none. Purely numeric suffixes such as the
// "0" in "jquery-3.6.0" are not extensions.
func (p *ParsedURL) EstimateExtension() string {
	segment := p.Path
	if i := strings.LastIndex(segment, "/"); i >= 0 {
		segment = segment[i+1:]
	}
	m := extensionRe.FindStringSubmatch(segment)
	if m == nil || !hasLetterRe.MatchString(m[1]) {
		return ""
	}
	return strings.ToLower(m[1])
}

func (p *ParsedURL) IsStaticFile() bool {
	_, ok := staticExtensions[p.EstimateExtension()]
	return ok
}

func (p *ParsedURL) IsOnlyFragment() bool {
	return strings.HasPrefix(strings.TrimSpace(p.raw), "#")
}

func (p *ParsedURL) IsHTTP() bool {
	return p.Scheme == "http" || p.Scheme == "https"
}

// Depth is the number of directories between the site root and the
// document: "/" and "/about" are 0, "/blog/" is 1, "/a/b/c" is 2.
func (p *ParsedURL) Depth() int {
	return strings.Count(strings.TrimPrefix(p.Path, "/"), "/")
}

// PathSegments counts the non-empty path segments, which is what a crawl
// depth limit is measured in: "/about" and "/about/" are both 1.
func (p *ParsedURL) PathSegments() int {
	n := 0
	for _, segment := range strings.Split(p.Path, "/") {
		if segment != "" {
			n++
		}
	}
	return n
}

func (p *ParsedURL) Clone() *ParsedURL {
	c := *p
	if p.trail != nil {
		c.trail = append([]string(nil), p.trail...)
	}
	return &c
}

func (p *ParsedURL) SetPath(path, reason string) {
	p.trace("setPath", p.Path, path, reason)
	p.Path = path
	p.Extension = p.EstimateExtension()
}

func (p *ParsedURL) SetQuery(query string) {
	p.trace("setQuery", p.Query, query, "")
	p.Query = query
}

// ChangeDepth rewrites a root-relative path so it is relative to a
// directory n levels below the root. A negative n removes up to -n leading
// "../" segments instead.
func (p *ParsedURL) ChangeDepth(n int, reason string) {
	path := strings.TrimPrefix(p.Path, "/")
	switch {
	case n > 0:
		path = strings.Repeat("../", n) + path
	case n < 0:
		for i := 0; i < -n && strings.HasPrefix(path, "../"); i++ {
			path = path[3:]
		}
	}
	p.trace("changeDepth", p.Path, path, reason)
	p.Path = path
}

// Trail lists the mutations applied to this instance when Debug is set.
func (p *ParsedURL) Trail() []string {
	return p.trail
}

func (p *ParsedURL) trace(op, from, to, reason string) {
	if !p.Debug {
		return
	}
	entry := op + ": " + from + " -> " + to
	if reason != "" {
		entry += " (" + reason + ")"
	}
	p.trail = append(p.trail, entry)
}
