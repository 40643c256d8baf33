package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jaeles-project/sitemirror/internal/offline"
)

// Options are the crawl settings the processors read. They are fixed once
// Compile has run and are safe to share between goroutines.
type Options struct {
	DisableJavascript bool `yaml:"disable_javascript"`
	DisableStyles     bool `yaml:"disable_styles"`
	DisableFonts      bool `yaml:"disable_fonts"`
	DisableImages     bool `yaml:"disable_images"`
	DisableFiles      bool `yaml:"disable_files"`

	MaxDepth          int  `yaml:"max_depth" validate:"gte=0"`
	SinglePage        bool `yaml:"single_page"`
	SingleForeignPage bool `yaml:"single_foreign_page"`

	IgnoreRegex        []string `yaml:"ignore_regex" validate:"dive,regexp"`
	AcceptEncoding     string   `yaml:"accept_encoding" validate:"omitempty,max=64"`
	ReplaceQueryString []string `yaml:"replace_query_string" validate:"dive,query_rule"`

	AllowedDomainsForExternalFiles []string `yaml:"allowed_domains_for_external_files" validate:"dive,required"`
	AllowedDomainsForCrawling      []string `yaml:"allowed_domains_for_crawling" validate:"dive,required"`

	RemoveUnwantedCode bool `yaml:"remove_unwanted_code"`
	AstroImportDepth   int  `yaml:"astro_import_depth" validate:"gte=1,lte=100"`

	ignore          []*regexp.Regexp
	queryRules      offline.QueryReplacements
	staticDomains   []*regexp.Regexp
	crawlingDomains []*regexp.Regexp
}

func DefaultOptions() *Options {
	return &Options{
		AcceptEncoding:   "gzip",
		AstroImportDepth: DefaultAstroImportDepth,
	}
}

// Compile prepares regexes and query rules. It must run before the options
// are handed to processors.
func (o *Options) Compile() error {
	o.ignore = o.ignore[:0]
	for _, expr := range o.IgnoreRegex {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("ignore regex %q: %w", expr, err)
		}
		o.ignore = append(o.ignore, re)
	}

	rules, err := offline.ParseQueryReplacements(o.ReplaceQueryString)
	if err != nil {
		return err
	}
	o.queryRules = rules

	if o.staticDomains, err = compileDomainPatterns(o.AllowedDomainsForExternalFiles); err != nil {
		return fmt.Errorf("allowed domains for external files: %w", err)
	}
	if o.crawlingDomains, err = compileDomainPatterns(o.AllowedDomainsForCrawling); err != nil {
		return fmt.Errorf("allowed domains for crawling: %w", err)
	}
	if o.AstroImportDepth <= 0 {
		o.AstroImportDepth = DefaultAstroImportDepth
	}
	return nil
}

// IsIgnored reports whether raw matches one of the ignore patterns.
func (o *Options) IsIgnored(raw string) bool {
	for _, re := range o.ignore {
		if re.MatchString(raw) {
			return true
		}
	}
	return false
}

func (o *Options) QueryReplacements() offline.QueryReplacements {
	return o.queryRules
}

func (o *Options) IsDomainAllowedForStaticFiles(host string) bool {
	return matchDomain(o.staticDomains, host) || matchDomain(o.crawlingDomains, host)
}

func (o *Options) IsExternalDomainAllowedForCrawling(host string) bool {
	return matchDomain(o.crawlingDomains, host)
}

func (o *Options) Predicates() offline.Predicates {
	return offline.Predicates{
		StaticFilesAllowed: o.IsDomainAllowedForStaticFiles,
		CrawlingAllowed:    o.IsExternalDomainAllowedForCrawling,
	}
}

// compileDomainPatterns accepts plain hosts and "*" wildcards such as
// "*.cdn.example.com".
func compileDomainPatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("domain pattern %q: %w", pattern, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchDomain(patterns []*regexp.Regexp, host string) bool {
	host = strings.ToLower(host)
	for _, re := range patterns {
		if re.MatchString(host) {
			return true
		}
	}
	return false
}
