package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/jaeles-project/sitemirror/internal/netutil"
)

var ErrProcessorAlreadyRegistered = errors.New("processor already registered")

const (
	opFindURLs     = "findUrls"
	opBeforeParse  = "beforeUrlParsing"
	opOfflineApply = "offlineVersion"
)

// Manager dispatches content to the processors relevant to its type, in
// registration order. Register everything before the first dispatch; after
// that the Manager is read-only and may be shared between workers.
type Manager struct {
	processors []ContentProcessor
	registered map[string]struct{}
	stats      *ProcessorStats
}

func NewManager() *Manager {
	return &Manager{
		registered: make(map[string]struct{}),
		stats:      NewProcessorStats(),
	}
}

// NewDefaultManager registers the built-in processors. Astro runs first so
// it sees module script URLs before the HTML rewrite makes them relative.
func NewDefaultManager(cfg ProcessorConfig) *Manager {
	m := NewManager()
	m.MustRegister(NewAstroProcessor(cfg))
	m.MustRegister(NewHTMLProcessor(cfg))
	m.MustRegister(NewJavaScriptProcessor(cfg))
	m.MustRegister(NewCSSProcessor(cfg))
	m.MustRegister(NewXMLProcessor(cfg))
	m.MustRegister(NewNextJSProcessor(cfg))
	m.MustRegister(NewSvelteProcessor(cfg))
	return m
}

func (m *Manager) RegisterProcessor(p ContentProcessor) error {
	key := fmt.Sprintf("%T", p)
	if _, ok := m.registered[key]; ok {
		return fmt.Errorf("%s: %w", p.Name(), ErrProcessorAlreadyRegistered)
	}
	m.registered[key] = struct{}{}
	m.processors = append(m.processors, p)
	return nil
}

func (m *Manager) MustRegister(p ContentProcessor) {
	if err := m.RegisterProcessor(p); err != nil {
		panic(err)
	}
}

func (m *Manager) Processors() []ContentProcessor {
	return append([]ContentProcessor(nil), m.processors...)
}

func (m *Manager) Stats() *ProcessorStats {
	return m.stats
}

// FindURLs collects the batches of every relevant processor that looked at
// the content.
func (m *Manager) FindURLs(content string, ct ContentType, u *netutil.ParsedURL) []*FoundURLs {
	var batches []*FoundURLs
	for _, p := range m.processors {
		if !p.IsContentTypeRelevant(ct) {
			continue
		}
		start := time.Now()
		found := p.FindURLs(content, u)
		m.stats.Record(p.Name(), opFindURLs, time.Since(start))
		if found != nil {
			batches = append(batches, found)
		}
	}
	return batches
}

func (m *Manager) ApplyContentChangesBeforeURLParsing(content *string, ct ContentType, u *netutil.ParsedURL) {
	for _, p := range m.processors {
		if !p.IsContentTypeRelevant(ct) {
			continue
		}
		start := time.Now()
		p.ApplyContentChangesBeforeURLParsing(content, ct, u)
		m.stats.Record(p.Name(), opBeforeParse, time.Since(start))
	}
}

// ApplyContentChangesForOfflineVersion stops at the first processor error.
// Changes made by the processors before it are kept.
func (m *Manager) ApplyContentChangesForOfflineVersion(content *string, ct ContentType, u *netutil.ParsedURL, removeUnwantedCode bool) error {
	for _, p := range m.processors {
		if !p.IsContentTypeRelevant(ct) {
			continue
		}
		start := time.Now()
		err := p.ApplyContentChangesForOfflineVersion(content, ct, u, removeUnwantedCode)
		m.stats.Record(p.Name(), opOfflineApply, time.Since(start))
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	return nil
}
