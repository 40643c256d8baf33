package netutil

import (
	"net/url"
	"path"
	"sort"
	"strings"
)

// CanonicalKey renders p as a dedupe key: lowercase scheme and host,
// default port dropped, dot segments removed, query keys sorted and the
// fragment discarded.
func CanonicalKey(p *ParsedURL) string {
	if p == nil {
		return ""
	}
	c := p.Clone()
	c.Fragment = ""
	c.Path = NormalizePathComponent(c.Path)
	if c.Query != "" {
		c.Query = NormalizeQuery(c.Query)
	}
	return c.FullURL(true, false)
}

// NormalizeQuery sorts query parameters by key, then by value, dropping
// exact repeats.
func NormalizeQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		vals := values[k]
		sort.Strings(vals)
		escapedKey := url.QueryEscape(k)
		last := "\x00"
		for _, v := range vals {
			if v == last {
				continue
			}
			last = v
			if v == "" {
				parts = append(parts, escapedKey)
				continue
			}
			parts = append(parts, escapedKey+"="+url.QueryEscape(v))
		}
		if len(vals) == 0 {
			parts = append(parts, escapedKey)
		}
	}
	return strings.Join(parts, "&")
}

// NormalizePathComponent cleans dot segments but keeps a trailing slash,
// since /blog and /blog/ are different documents.
func NormalizePathComponent(p string) string {
	if p == "" {
		return "/"
	}
	clean := path.Clean(p)
	if !strings.HasPrefix(clean, "/") {
		clean = "/" + clean
	}
	if strings.HasSuffix(p, "/") && clean != "/" {
		clean += "/"
	}
	return clean
}
