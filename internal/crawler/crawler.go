package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"github.com/jaeles-project/sitemirror/core"
	"github.com/jaeles-project/sitemirror/internal/config"
	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/jaeles-project/sitemirror/internal/registry"
	"github.com/jaeles-project/sitemirror/stringset"
	jsoniter "github.com/json-iterator/go"
)

const (
	ctxSource    = "source"
	maxRedirects = 10
)

// MirrorOutput is one line of --json output.
type MirrorOutput struct {
	Input      string `json:"input"`
	Source     string `json:"source"`
	OutputType string `json:"type"`
	Output     string `json:"output"`
	StatusCode int    `json:"status,omitempty"`
}

// Resource is one fetched URL as the exporter needs it.
type Resource struct {
	URL         string           `json:"url"`
	ContentType core.ContentType `json:"content_type"`
	StoreID     string           `json:"store_id,omitempty"`
	Source      core.URLSource   `json:"source"`
	// RedirectTo is set for ContentTypeRedirect entries.
	RedirectTo string `json:"redirect_to,omitempty"`
}

type Result struct {
	Site      string            `json:"site"`
	Resources []Resource        `json:"resources"`
	Skipped   []core.SkippedURL `json:"skipped"`
	Elapsed   time.Duration     `json:"elapsed_ns"`
}

// Crawler drives colly over one site and feeds every response through the
// content processors.
type Crawler struct {
	C *colly.Collector

	Stats   *core.CrawlStats
	Manager *core.Manager
	Output  *core.Output

	ctx      context.Context
	cfg      config.CrawlerConfig
	opts     *core.Options
	site     *netutil.ParsedURL
	input    string
	store    core.ContentStore
	registry *registry.URLRegistry
	skipped  *core.SkippedCollector
	skipSet  *stringset.StringFilter

	mu        sync.Mutex
	resources map[string]Resource
}

func NewCrawler(ctx context.Context, site string, cfg config.CrawlerConfig, store core.ContentStore, output *core.Output) (*Crawler, error) {
	initial := netutil.Parse(site, nil)
	if !initial.IsHTTP() || initial.Host == "" {
		return nil, fmt.Errorf("not an http(s) url: %q", site)
	}
	if store == nil {
		return nil, errors.New("crawler needs a content store")
	}
	opts := cfg.Options
	if opts == nil {
		opts = core.DefaultOptions()
		if err := opts.Compile(); err != nil {
			return nil, err
		}
	}
	reg := cfg.Registry
	if reg == nil {
		reg = registry.NewURLRegistry()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	skipped := core.NewSkippedCollector()
	manager := core.NewDefaultManager(core.ProcessorConfig{
		Options:    opts,
		InitialURL: initial,
		Store:      store,
		Skipped:    skipped,
	})

	c := colly.NewCollector(
		colly.Async(true),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(cfg.Timeout)

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		core.Logger.Infof("Proxy: %s", cfg.Proxy)
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	c.WithTransport(newRetryTransport(transport, cfg.Retries, time.Second))

	switch ua := cfg.UserAgent; {
	case ua == "mobi":
		extensions.RandomMobileUserAgent(c)
	case ua == "web" || ua == "":
		extensions.RandomUserAgent(c)
	default:
		c.UserAgent = ua
	}
	extensions.Referer(c)

	parallelism := cfg.MaxConcurrency
	if parallelism <= 0 {
		parallelism = 1
	}
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("set limit rule: %w", err)
	}

	crawler := &Crawler{
		C:         c,
		Stats:     core.NewCrawlStats(),
		Manager:   manager,
		Output:    output,
		ctx:       ctx,
		cfg:       cfg,
		opts:      opts,
		site:      initial,
		input:     initial.FullURL(true, false),
		store:     store,
		registry:  reg,
		skipped:   skipped,
		skipSet:   stringset.NewExactStringFilter(),
		resources: make(map[string]Resource),
	}

	c.SetRedirectHandler(crawler.handleRedirect)
	c.OnRequest(crawler.handleRequest)
	c.OnResponse(crawler.handleResponse)
	c.OnError(crawler.handleError)
	return crawler, nil
}

// Run crawls until the queue is empty or ctx is cancelled.
func (crawler *Crawler) Run() (*Result, error) {
	start := time.Now()
	core.Logger.Infof("Start crawling: %s", crawler.input)

	crawler.registry.Duplicate(crawler.site)
	crawler.emit(crawler.input, core.SourceInitURL, crawler.input)
	if err := crawler.request(crawler.input, core.SourceInitURL); err != nil {
		return nil, fmt.Errorf("start %s: %w", crawler.input, err)
	}
	crawler.C.Wait()

	result := &Result{
		Site:      crawler.input,
		Resources: crawler.Resources(),
		Skipped:   crawler.skipped.Entries(),
		Elapsed:   time.Since(start),
	}
	if err := crawler.ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// Resources returns everything fetched so far, ordered by URL.
func (crawler *Crawler) Resources() []Resource {
	crawler.mu.Lock()
	out := make([]Resource, 0, len(crawler.resources))
	for _, r := range crawler.resources {
		out = append(out, r)
	}
	crawler.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

func (crawler *Crawler) Skipped() []core.SkippedURL {
	return crawler.skipped.Entries()
}

func (crawler *Crawler) record(r Resource) {
	crawler.mu.Lock()
	defer crawler.mu.Unlock()
	if _, ok := crawler.resources[r.URL]; ok && r.ContentType == core.ContentTypeRedirect {
		return
	}
	crawler.resources[r.URL] = r
}

func (crawler *Crawler) request(rawURL string, source core.URLSource) error {
	ctx := colly.NewContext()
	ctx.Put(ctxSource, source)
	return crawler.C.Request(http.MethodGet, rawURL, nil, ctx, nil)
}

func (crawler *Crawler) handleRequest(r *colly.Request) {
	select {
	case <-crawler.ctx.Done():
		r.Abort()
		return
	default:
	}
	if enc := crawler.opts.AcceptEncoding; enc != "" {
		r.Headers.Set("Accept-Encoding", enc)
	}
	for _, h := range crawler.cfg.Headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		r.Headers.Set(name, strings.TrimSpace(value))
	}
}

// handleRedirect records each hop as a redirect resource so the exporter
// can write a stub pointing at the final document.
func (crawler *Crawler) handleRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if crawler.cfg.NoRedirect {
		return http.ErrUseLastResponse
	}
	target := netutil.Parse(req.URL.String(), nil)
	from := netutil.Parse(via[len(via)-1].URL.String(), nil)
	crawler.record(Resource{
		URL:         from.FullURL(true, false),
		ContentType: core.ContentTypeRedirect,
		Source:      core.SourceRedirect,
		RedirectTo:  target.FullURL(true, false),
	})
	if !crawler.inScope(target, core.SourceRedirect) {
		core.Logger.Debugf("Not following redirect to %s", target)
		return http.ErrUseLastResponse
	}
	crawler.registry.Duplicate(target)
	crawler.emit(target.FullURL(true, false), core.SourceRedirect, from.FullURL(true, false))
	return nil
}

func (crawler *Crawler) handleResponse(r *colly.Response) {
	u := netutil.Parse(r.Request.URL.String(), nil)
	if crawler.registry.MarkResponse(u, r.Body) {
		return
	}

	source, _ := r.Ctx.GetAny(ctxSource).(core.URLSource)
	ct := core.DetectContentType(r.Headers.Get("Content-Type"), u.Extension)
	id := core.URLIdentity(u)
	if err := crawler.store.Save(id, r.Body); err != nil {
		core.Logger.Errorf("Failed to store %s: %s", u, err)
		crawler.Stats.IncrementErrors()
		return
	}
	crawler.Stats.AddStored(len(r.Body))
	if ct == core.ContentTypeHTML {
		crawler.Stats.IncrementPagesVisited()
	}
	crawler.record(Resource{URL: u.FullURL(true, false), ContentType: ct, StoreID: id, Source: source})

	if !isParsable(ct) {
		return
	}
	content := string(r.Body)
	crawler.Manager.ApplyContentChangesBeforeURLParsing(&content, ct, u)
	for _, batch := range crawler.Manager.FindURLs(content, ct, u) {
		for _, found := range batch.URLs() {
			crawler.enqueue(found)
		}
	}
}

func (crawler *Crawler) handleError(r *colly.Response, err error) {
	crawler.Stats.IncrementErrors()
	core.Logger.Debugf("Error request: %s - Status code: %v - Error: %s", r.Request.URL.String(), r.StatusCode, err)
}

func (crawler *Crawler) enqueue(found *core.FoundURL) {
	target := found.Resolve()
	if !target.IsHTTP() || target.Host == "" {
		return
	}
	full := target.FullURL(true, false)
	if crawler.opts.IsIgnored(found.URL) || crawler.opts.IsIgnored(full) {
		crawler.skipped.ReportSkipped(full, core.SkipIgnored, found.SourceURL, found.Source)
		return
	}
	if !crawler.inScope(target, found.Source) {
		if !crawler.skipSet.Duplicate(full) {
			crawler.skipped.ReportSkipped(full, core.SkipDisallowedHost, found.SourceURL, found.Source)
		}
		return
	}
	if crawler.registry.Duplicate(target) {
		return
	}

	crawler.Stats.AddURLsFound(1)
	crawler.emit(full, found.Source, found.SourceURL)
	if err := crawler.request(full, found.Source); err != nil && !errors.Is(err, colly.ErrAlreadyVisited) {
		core.Logger.Debugf("Error queueing %s: %s", full, err)
	}
}

// inScope applies the host rules: the initial host is always crawled,
// other hosts only when an allow-list or single-foreign-page permits.
func (crawler *Crawler) inScope(target *netutil.ParsedURL, source core.URLSource) bool {
	if strings.EqualFold(target.Host, crawler.site.Host) {
		return true
	}
	if crawler.opts.IsExternalDomainAllowedForCrawling(target.Host) {
		return true
	}
	if source != core.SourceAHref && source != core.SourceRedirect {
		return crawler.opts.IsDomainAllowedForStaticFiles(target.Host)
	}
	return crawler.opts.SingleForeignPage
}

func (crawler *Crawler) emit(u string, source core.URLSource, from string) {
	outputFormat := fmt.Sprintf("[%s] - %s", source, u)
	if crawler.cfg.JSONOutput {
		sout := MirrorOutput{
			Input:      crawler.input,
			Source:     from,
			OutputType: source.String(),
			Output:     u,
		}
		if data, err := jsoniter.MarshalToString(sout); err == nil {
			outputFormat = data
			fmt.Println(outputFormat)
		}
	} else if crawler.cfg.Quiet {
		fmt.Println(u)
	} else {
		fmt.Println(outputFormat)
	}

	if crawler.Output != nil {
		crawler.Output.WriteToFile(outputFormat)
	}
}

func isParsable(ct core.ContentType) bool {
	switch ct {
	case core.ContentTypeImage, core.ContentTypeAudio, core.ContentTypeVideo,
		core.ContentTypeFont, core.ContentTypeDocument:
		return false
	}
	return true
}
