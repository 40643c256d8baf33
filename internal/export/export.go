package export

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jaeles-project/sitemirror/core"
	"github.com/jaeles-project/sitemirror/internal/crawler"
	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/jaeles-project/sitemirror/internal/offline"
	jsoniter "github.com/json-iterator/go"
)

const IndexFile = "_index.json"

var errOutsideRoot = errors.New("path escapes the mirror root")

// Entry maps one fetched URL to its file in the mirror.
type Entry struct {
	URL         string           `json:"url"`
	Path        string           `json:"path"`
	ContentType core.ContentType `json:"content_type"`
	RedirectTo  string           `json:"redirect_to,omitempty"`
	Error       string           `json:"error,omitempty"`
}

type Index struct {
	Site    string  `json:"site"`
	Entries []Entry `json:"entries"`
}

// Exporter writes the offline copy of a crawl.
type Exporter struct {
	dir     string
	initial *netutil.ParsedURL
	manager *core.Manager
	store   core.ContentStore
	opts    *core.Options
}

func New(dir string, initial *netutil.ParsedURL, manager *core.Manager, store core.ContentStore, opts *core.Options) *Exporter {
	if opts == nil {
		opts = core.DefaultOptions()
	}
	return &Exporter{dir: dir, initial: initial, manager: manager, store: store, opts: opts}
}

// Export writes every resource and the index. A resource that fails is
// recorded in its index entry and does not stop the export.
func (e *Exporter) Export(resources []crawler.Resource) (*Index, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create mirror directory: %w", err)
	}

	index := &Index{Site: e.initial.FullURL(true, false)}
	for _, r := range resources {
		entry, err := e.exportOne(r)
		if err != nil {
			core.Logger.Warnf("Export %s: %s", r.URL, err)
			entry.Error = err.Error()
		}
		index.Entries = append(index.Entries, entry)
	}
	sort.Slice(index.Entries, func(i, j int) bool { return index.Entries[i].URL < index.Entries[j].URL })

	data, err := jsoniter.MarshalIndent(index, "", "  ")
	if err != nil {
		return index, fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(e.dir, IndexFile), data, 0o644); err != nil {
		return index, fmt.Errorf("write index: %w", err)
	}
	return index, nil
}

func (e *Exporter) exportOne(r crawler.Resource) (Entry, error) {
	u := netutil.Parse(r.URL, nil)
	rel := offline.FilePathForURL(e.initial, u, fileAttribute(r.ContentType), e.opts.QueryReplacements())
	entry := Entry{URL: r.URL, Path: rel, ContentType: r.ContentType, RedirectTo: r.RedirectTo}

	if r.ContentType == core.ContentTypeRedirect {
		return entry, e.write(rel, []byte(e.redirectStub(u, r.RedirectTo)))
	}

	body, err := e.store.Load(r.StoreID)
	if err != nil {
		return entry, fmt.Errorf("load %s: %w", r.StoreID, err)
	}
	if !isText(r.ContentType) || e.manager == nil {
		return entry, e.write(rel, body)
	}

	content := string(body)
	processErr := e.manager.ApplyContentChangesForOfflineVersion(&content, r.ContentType, u, e.opts.RemoveUnwantedCode)
	// Written even when a processor failed part way.
	if err := e.write(rel, []byte(content)); err != nil {
		return entry, err
	}
	return entry, processErr
}

func (e *Exporter) write(rel string, data []byte) error {
	clean := path.Clean(strings.TrimPrefix(rel, "./"))
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return fmt.Errorf("%s: %w", rel, errOutsideRoot)
	}
	target := filepath.Join(e.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

func (e *Exporter) redirectStub(from *netutil.ParsedURL, to string) string {
	target := netutil.Parse(to, from)
	href := offline.NewConverter(e.initial, from, target, e.opts.Predicates(), "href", e.opts.QueryReplacements()).ConvertURLToRelative(false)
	escaped := html.EscapeString(href)
	return `<!DOCTYPE html><html><head><meta charset="utf-8">` +
		`<meta http-equiv="refresh" content="0; url=` + escaped + `">` +
		`</head><body><a href="` + escaped + `">` + escaped + `</a></body></html>`
}

// fileAttribute picks the reference kind whose extension rule matches ct,
// so a file without an extension is written where references point.
func fileAttribute(ct core.ContentType) string {
	switch ct {
	case core.ContentTypeImage:
		return offline.AttributeImage
	case core.ContentTypeScript:
		return offline.AttributeScript
	case core.ContentTypeStylesheet:
		return offline.AttributeStylesheet
	}
	return ""
}

func isText(ct core.ContentType) bool {
	switch ct {
	case core.ContentTypeHTML, core.ContentTypeScript, core.ContentTypeStylesheet,
		core.ContentTypeXML, core.ContentTypeJSON:
		return true
	}
	return false
}
