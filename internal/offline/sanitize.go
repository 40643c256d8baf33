package offline

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	maxPathLength   = 200
	queryHashLength = 10
)

var (
	dangerousChars = regexp.MustCompile(`[\\:*?"<>|%#\x00-\x1f\x7f]`)
	underscoreRun  = regexp.MustCompile(`_{2,}`)
	fileExtRe      = regexp.MustCompile(`\.([a-zA-Z0-9]{1,10})$`)
	backrefRe      = regexp.MustCompile(`\$(\d+)`)
)

var dynamicExtensions = map[string]struct{}{
	"php": {}, "php3": {}, "php4": {}, "php5": {}, "phtml": {},
	"asp": {}, "aspx": {}, "ashx": {}, "jsp": {}, "jspx": {},
	"cfm": {}, "cgi": {}, "pl": {}, "do": {}, "action": {}, "shtml": {},
}

// fileLikeExtensions mark directory names that could collide with a file
// written next to them.
var fileLikeExtensions = map[string]struct{}{
	"html": {}, "htm": {}, "php": {}, "asp": {}, "aspx": {}, "jsp": {},
	"css": {}, "js": {}, "json": {}, "xml": {}, "txt": {},
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "svg": {}, "webp": {}, "ico": {},
	"woff": {}, "woff2": {}, "ttf": {}, "otf": {}, "eot": {}, "pdf": {},
}

// QueryReplacement rewrites a query string instead of hashing it.
type QueryReplacement struct {
	pattern     *regexp.Regexp
	literal     string
	replacement string
}

type QueryReplacements []QueryReplacement

// ParseQueryReplacements reads rules of the form "pattern -> replacement".
// A pattern wrapped in slashes ("/([^&]+)=([^&]*)&?/i") is a regular
// expression, anything else is matched literally.
func ParseQueryReplacements(rules []string) (QueryReplacements, error) {
	var out QueryReplacements
	for _, rule := range rules {
		if strings.TrimSpace(rule) == "" {
			continue
		}
		parts := strings.SplitN(rule, "->", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("query replacement %q: missing \"->\"", rule)
		}
		pattern := strings.TrimSpace(parts[0])
		replacement := strings.TrimSpace(parts[1])
		if pattern == "" {
			return nil, fmt.Errorf("query replacement %q: empty pattern", rule)
		}

		r := QueryReplacement{replacement: replacement}
		if re, ok, err := delimitedRegexp(pattern); err != nil {
			return nil, fmt.Errorf("query replacement %q: %w", rule, err)
		} else if ok {
			r.pattern = re
			r.replacement = backrefRe.ReplaceAllString(replacement, "$${$1}")
		} else {
			r.literal = pattern
		}
		out = append(out, r)
	}
	return out, nil
}

func delimitedRegexp(pattern string) (*regexp.Regexp, bool, error) {
	if len(pattern) < 2 || pattern[0] != '/' {
		return nil, false, nil
	}
	end := strings.LastIndex(pattern, "/")
	if end <= 0 {
		return nil, false, nil
	}
	flags := pattern[end+1:]
	if strings.Trim(flags, "imsU") != "" {
		return nil, false, nil
	}
	expr := pattern[1:end]
	if flags != "" {
		expr = "(?" + flags + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, false, err
	}
	return re, true, nil
}

func (rs QueryReplacements) Apply(query string) string {
	for _, r := range rs {
		if r.pattern != nil {
			query = r.pattern.ReplaceAllString(query, r.replacement)
			continue
		}
		query = strings.ReplaceAll(query, r.literal, r.replacement)
	}
	return query
}

// SanitizeFilePath turns a URL path (optionally with ?query and #fragment)
// into a relative path that is safe to write on any common filesystem.
// Applying it twice gives the same result as applying it once.
func SanitizeFilePath(p string, keepFragment bool, rules QueryReplacements) string {
	return sanitizeFilePath(p, keepFragment, rules, 0)
}

// sanitizeFilePath measures the length limit on the path from the mirror
// root: leading "../" segments are not counted and folder is added for a
// host directory the reference leaves out.
func sanitizeFilePath(p string, keepFragment bool, rules QueryReplacements, folder int) string {
	fragment := ""
	if i := strings.Index(p, "#"); i >= 0 {
		fragment = p[i+1:]
		p = p[:i]
	}
	query := ""
	if i := strings.Index(p, "?"); i >= 0 {
		query = p[i+1:]
		p = p[:i]
	}
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}

	dir, name := "", p
	if i := strings.LastIndex(p, "/"); i >= 0 {
		dir, name = p[:i+1], p[i+1:]
	}

	name = rewriteDynamicExtension(name)
	if query != "" {
		name = withQuery(name, query, rules)
	}
	name = cleanSegment(name)
	dir = sanitizeDirectories(dir)

	if folder+anchoredLength(dir)+len(name) > maxPathLength {
		name = shortenName(name)
	}

	result := dir + name
	if keepFragment && fragment != "" {
		result += "#" + fragment
	}
	return result
}

func anchoredLength(dir string) int {
	dir = strings.TrimPrefix(dir, "./")
	for strings.HasPrefix(dir, "../") {
		dir = dir[3:]
	}
	return len(strings.TrimPrefix(dir, "/"))
}

func rewriteDynamicExtension(name string) string {
	m := fileExtRe.FindStringSubmatch(name)
	if m == nil {
		return name
	}
	if _, ok := dynamicExtensions[strings.ToLower(m[1])]; ok {
		return name + ".html"
	}
	return name
}

func withQuery(name, query string, rules QueryReplacements) string {
	var insert string
	if len(rules) > 0 {
		insert = strings.ReplaceAll(rules.Apply(query), "/", "_")
	} else {
		insert = shortHash(query)
	}
	if insert == "" {
		return name
	}

	if name == "" {
		name = "index.html"
	}
	stem, ext := splitExtension(name)
	if ext == "" {
		return stem + "." + insert
	}
	return stem + "." + insert + "." + ext
}

func sanitizeDirectories(dir string) string {
	if dir == "" {
		return dir
	}
	segments := strings.Split(dir, "/")
	for i, segment := range segments {
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		segment = cleanSegment(segment)
		if !strings.HasPrefix(segment, "_") {
			if m := fileExtRe.FindStringSubmatch(segment); m != nil {
				if _, ok := fileLikeExtensions[strings.ToLower(m[1])]; ok {
					segment += "_"
				}
			}
		}
		segments[i] = segment
	}
	return strings.Join(segments, "/")
}

func cleanSegment(s string) string {
	s = dangerousChars.ReplaceAllString(s, "_")
	return underscoreRun.ReplaceAllString(s, "_")
}

// shortenName hashes an overlong base name and keeps its extension. Names
// whose stem is already hash sized are left alone.
func shortenName(name string) string {
	stem, ext := splitExtension(name)
	sum := sha1.Sum([]byte(stem))
	hashed := hex.EncodeToString(sum[:])
	if len(stem) <= len(hashed) {
		return name
	}
	if ext == "" {
		return hashed
	}
	return hashed + "." + ext
}

func splitExtension(name string) (string, string) {
	m := fileExtRe.FindStringSubmatchIndex(name)
	if m == nil {
		return name, ""
	}
	return name[:m[0]], name[m[2]:m[3]]
}

func shortHash(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:queryHashLength]
}
