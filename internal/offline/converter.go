package offline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jaeles-project/sitemirror/internal/netutil"
)

// Reference kinds a caller passes as the attribute when the tag or the
// content type says more than the attribute name alone.
const (
	AttributeImage      = "image"
	AttributeScript     = "script"
	AttributeStylesheet = "stylesheet"
)

var (
	schemeRe        = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)
	imageAttributes = map[string]struct{}{AttributeImage: {}, "srcset": {}, "imagesrcset": {}, "poster": {}}
)

// Predicates decide whether a host other than the initial or the current
// page host was fetched for the mirror. Nil predicates answer false.
type Predicates struct {
	StaticFilesAllowed func(host string) bool
	CrawlingAllowed    func(host string) bool
}

// Resource pairs a target URL with its offline path. RelativePath is
// empty when the reference stays absolute.
type Resource struct {
	Target       *netutil.ParsedURL
	RelativePath string
}

func (r Resource) IsForcedAbsolute() bool {
	return r.RelativePath == ""
}

// Converter rewrites one reference found on the base page into a path
// relative to that page's offline file.
type Converter struct {
	initial    *netutil.ParsedURL
	base       *netutil.ParsedURL
	target     *netutil.ParsedURL
	relation   DomainRelation
	predicates Predicates
	attribute  string
	rules      QueryReplacements
	trail      []string
}

// NewConverter takes the target already resolved against base. attribute
// names the HTML attribute the reference came from and may be empty.
func NewConverter(initial, base, target *netutil.ParsedURL, predicates Predicates, attribute string, rules QueryReplacements) *Converter {
	if initial == nil {
		initial = base
	}
	return &Converter{
		initial:    initial,
		base:       base,
		target:     target,
		relation:   ClassifyDomainRelation(initial, base, target),
		predicates: predicates,
		attribute:  strings.ToLower(attribute),
		rules:      rules,
	}
}

func (c *Converter) Relation() DomainRelation {
	return c.relation
}

// ConvertURLToRelative returns the reference to write into the offline
// copy: a relative path, or the forced value when the target cannot be
// mirrored.
func (c *Converter) ConvertURLToRelative(keepFragment bool) string {
	if forced, ok := c.forcedURL(); ok {
		return forced
	}
	return c.relativePath(keepFragment)
}

func (c *Converter) Resource() Resource {
	if _, ok := c.forcedURL(); ok {
		return Resource{Target: c.target}
	}
	return Resource{Target: c.target, RelativePath: c.relativePath(false)}
}

// Trail lists the path mutations of the last conversion when the target
// has Debug set.
func (c *Converter) Trail() []string {
	return c.trail
}

func (c *Converter) forcedURL() (string, bool) {
	raw := strings.TrimSpace(c.target.Raw())
	if c.target.IsOnlyFragment() {
		return raw, true
	}
	if schemeRe.MatchString(raw) && !c.target.IsHTTP() {
		return raw, true
	}
	if strings.ContainsAny(raw, "{<") || strings.Contains(raw, "&#") {
		return raw, true
	}

	host := c.target.Host
	if host != "" && c.relation == InitialDifferentBaseDifferent {
		crawlAllowed := c.predicates.CrawlingAllowed != nil && c.predicates.CrawlingAllowed(host)
		staticAllowed := c.target.IsStaticFile() && c.predicates.StaticFilesAllowed != nil && c.predicates.StaticFilesAllowed(host)
		if !crawlAllowed && !staticAllowed {
			return c.target.FullURL(true, true), true
		}
	}
	return "", false
}

func (c *Converter) relativePath(keepFragment bool) string {
	clone := c.target.Clone()
	c.detectAndSetFileNameWithExtension(clone)
	c.calculateAndApplyDepth(clone)
	c.trail = clone.Trail()
	return sanitizeFilePath(clone.FullURL(false, keepFragment), keepFragment, c.rules, c.omittedFolderLength())
}

// omittedFolderLength is the length of the "_host/" folder the target's
// file lives in but the reference leaves out, which happens when an
// external page points at its own host.
func (c *Converter) omittedFolderLength() int {
	if c.relation != InitialDifferentBaseSame || c.base.Host == "" {
		return 0
	}
	return len(HostFolder(c.base)) + 1
}

func (c *Converter) detectAndSetFileNameWithExtension(u *netutil.ParsedURL) {
	path := u.Path
	switch {
	case path == "" || path == "/":
		u.SetPath("/index.html", "root document")
	case strings.HasSuffix(path, "/"):
		u.SetPath(path+"index."+c.inferExtension(u), "directory index")
	case u.EstimateExtension() == "":
		u.SetPath(path+"."+c.inferExtension(u), "missing extension")
	}
}

func (c *Converter) inferExtension(u *netutil.ParsedURL) string {
	if ext := u.EstimateExtension(); ext != "" {
		return ext
	}
	if _, ok := imageAttributes[c.attribute]; ok {
		if strings.Contains(strings.ToLower(u.Path), "icon") {
			return "svg"
		}
		return "jpg"
	}
	switch c.attribute {
	case AttributeScript:
		return "js"
	case AttributeStylesheet:
		return "css"
	}
	if u.Host == "fonts.googleapis.com" && strings.HasPrefix(u.Path, "/css") {
		return "css"
	}
	return "html"
}

func (c *Converter) calculateAndApplyDepth(u *netutil.ParsedURL) {
	baseDepth := c.base.Depth()
	switch c.relation {
	case InitialSameBaseSame, InitialDifferentBaseSame:
		if strings.HasPrefix(u.Path, "/") {
			u.ChangeDepth(baseDepth, "target on base host")
		}
	case InitialSameBaseDifferent:
		u.ChangeDepth(baseDepth+1, "backlink from external host folder")
	case InitialDifferentBaseDifferent:
		depth := baseDepth
		if c.base.HostWithPort() != c.initial.HostWithPort() {
			depth++
		}
		path := u.Path
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		u.SetPath("/"+HostFolder(c.target)+path, "external host folder")
		u.ChangeDepth(depth, "external target")
	}
}

// HostFolder is the directory an external host's files are mirrored into.
// A non-default port is part of the name.
func HostFolder(u *netutil.ParsedURL) string {
	if u.Port != 0 {
		return "_" + u.Host + "_" + strconv.Itoa(u.Port)
	}
	return "_" + u.Host
}

// FilePathForURL returns where u is stored inside the mirror root. It uses
// the same rules as ConvertURLToRelative so rewritten references and
// written files agree.
func FilePathForURL(initial, u *netutil.ParsedURL, attribute string, rules QueryReplacements) string {
	root := initial.Clone()
	root.SetPath("/", "mirror root")
	root.SetQuery("")
	root.Fragment = ""

	target := u.Clone()
	target.Fragment = ""
	return NewConverter(initial, root, target, Predicates{}, attribute, rules).relativePath(false)
}
