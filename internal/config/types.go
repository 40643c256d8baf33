package config

import (
	"time"

	"github.com/jaeles-project/sitemirror/core"
	"github.com/jaeles-project/sitemirror/internal/registry"
)

// CrawlerConfig is everything one site crawl needs.
type CrawlerConfig struct {
	Options        *core.Options
	Registry       *registry.URLRegistry
	Quiet          bool
	JSONOutput     bool
	MaxConcurrency int
	Delay          time.Duration
	RandomDelay    time.Duration
	Timeout        time.Duration
	UserAgent      string
	Proxy          string
	Headers        []string
	NoRedirect     bool
	Retries        int
}

// RuntimeOptions control the run as a whole rather than a single crawl.
type RuntimeOptions struct {
	OutputDir string
	StoreKind string
	StorePath string
	Threads   int
	NoExport  bool
	LogFile   string
}

// fileConfig is the YAML layout of --config. Crawl options sit at the top
// level next to the run settings.
type fileConfig struct {
	core.Options `yaml:",inline"`

	Output      string   `yaml:"output"`
	Store       string   `yaml:"store" validate:"oneof=memory file sqlite"`
	StorePath   string   `yaml:"store_path"`
	Threads     int      `yaml:"threads" validate:"gte=1"`
	Concurrent  int      `yaml:"concurrent" validate:"gte=1,lte=256"`
	Delay       int      `yaml:"delay" validate:"gte=0"`
	RandomDelay int      `yaml:"random_delay" validate:"gte=0"`
	Timeout     int      `yaml:"timeout" validate:"gte=0"`
	UserAgent   string   `yaml:"user_agent"`
	Proxy       string   `yaml:"proxy" validate:"omitempty,url"`
	Headers     []string `yaml:"headers" validate:"dive,contains=:"`
	NoRedirect  bool     `yaml:"no_redirect"`
	Retries     int      `yaml:"retries" validate:"gte=0,lte=10"`
	NoExport    bool     `yaml:"no_export"`
	JSON        bool     `yaml:"json"`
	Quiet       bool     `yaml:"quiet"`
	LogFile     string   `yaml:"log_file"`
}
