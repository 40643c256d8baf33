package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jaeles-project/sitemirror/core"
	"github.com/jaeles-project/sitemirror/internal/offline"
	"github.com/jaeles-project/sitemirror/internal/registry"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Loader struct {
	cmd *cobra.Command
}

func NewLoader(cmd *cobra.Command) Loader {
	return Loader{cmd: cmd}
}

// Load builds the configuration from flag defaults, then the --config file,
// then flags set explicitly on the command line.
func (l Loader) Load() (CrawlerConfig, RuntimeOptions, error) {
	flags := l.cmd.Flags()
	var cfg CrawlerConfig
	var runtime RuntimeOptions

	fc := fileConfig{Options: *core.DefaultOptions()}
	if err := applyFlags(flags, &fc, false); err != nil {
		return cfg, runtime, err
	}

	path, err := flags.GetString("config")
	if err != nil {
		return cfg, runtime, fmt.Errorf("get string config: %w", err)
	}
	if strings.TrimSpace(path) != "" {
		if err := loadFile(path, &fc); err != nil {
			return cfg, runtime, err
		}
		if err := applyFlags(flags, &fc, true); err != nil {
			return cfg, runtime, err
		}
	}

	if err := newValidator().Struct(fc); err != nil {
		return cfg, runtime, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := fc.Options
	if err := opts.Compile(); err != nil {
		return cfg, runtime, err
	}

	cfg = CrawlerConfig{
		Options:        &opts,
		Registry:       registry.NewURLRegistry(),
		Quiet:          fc.Quiet,
		JSONOutput:     fc.JSON,
		MaxConcurrency: fc.Concurrent,
		Delay:          time.Duration(fc.Delay) * time.Second,
		RandomDelay:    time.Duration(fc.RandomDelay) * time.Second,
		Timeout:        time.Duration(fc.Timeout) * time.Second,
		UserAgent:      fc.UserAgent,
		Proxy:          fc.Proxy,
		Headers:        fc.Headers,
		NoRedirect:     fc.NoRedirect,
		Retries:        fc.Retries,
	}
	if cfg.Timeout <= 0 {
		core.Logger.Info("Timeout is 0, using 10 seconds")
		cfg.Timeout = 10 * time.Second
	}

	runtime = RuntimeOptions{
		OutputDir: fc.Output,
		StoreKind: fc.Store,
		StorePath: fc.StorePath,
		Threads:   fc.Threads,
		NoExport:  fc.NoExport,
		LogFile:   fc.LogFile,
	}
	if runtime.StorePath == "" && runtime.StoreKind != "memory" {
		runtime.StorePath = defaultStorePath(runtime)
	}
	return cfg, runtime, nil
}

func defaultStorePath(runtime RuntimeOptions) string {
	base := runtime.OutputDir
	if base == "" {
		base = "."
	}
	if runtime.StoreKind == "sqlite" {
		return filepath.Join(base, ".sitemirror", "contents.sqlite")
	}
	return filepath.Join(base, ".sitemirror", "contents")
}

func loadFile(path string, fc *fileConfig) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expand config path %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("read config %s: %w", expanded, err)
	}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return fmt.Errorf("parse config %s: %w", expanded, err)
	}
	return nil
}

// applyFlags copies flag values into fc. With onlyChanged set, flags left at
// their default do not override values from the config file.
func applyFlags(flags *pflag.FlagSet, fc *fileConfig, onlyChanged bool) error {
	skip := func(name string) bool {
		return flags.Lookup(name) == nil || (onlyChanged && !flags.Changed(name))
	}
	getBool := func(name string, dst *bool) error {
		if skip(name) {
			return nil
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return fmt.Errorf("get bool %s: %w", name, err)
		}
		*dst = v
		return nil
	}
	getInt := func(name string, dst *int) error {
		if skip(name) {
			return nil
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return fmt.Errorf("get int %s: %w", name, err)
		}
		*dst = v
		return nil
	}
	getString := func(name string, dst *string) error {
		if skip(name) {
			return nil
		}
		v, err := flags.GetString(name)
		if err != nil {
			return fmt.Errorf("get string %s: %w", name, err)
		}
		*dst = v
		return nil
	}
	getStrings := func(name string, dst *[]string) error {
		if skip(name) {
			return nil
		}
		v, err := flags.GetStringArray(name)
		if err != nil {
			return fmt.Errorf("get string array %s: %w", name, err)
		}
		*dst = v
		return nil
	}

	o := &fc.Options
	return errors.Join(
		getInt("depth", &o.MaxDepth),
		getBool("single-page", &o.SinglePage),
		getBool("single-foreign-page", &o.SingleForeignPage),
		getBool("disable-javascript", &o.DisableJavascript),
		getBool("disable-styles", &o.DisableStyles),
		getBool("disable-fonts", &o.DisableFonts),
		getBool("disable-images", &o.DisableImages),
		getBool("disable-files", &o.DisableFiles),
		getStrings("ignore-regex", &o.IgnoreRegex),
		getStrings("replace-query-string", &o.ReplaceQueryString),
		getStrings("allowed-domain-for-external-files", &o.AllowedDomainsForExternalFiles),
		getStrings("allowed-domain-for-crawling", &o.AllowedDomainsForCrawling),
		getBool("remove-unwanted-code", &o.RemoveUnwantedCode),
		getInt("astro-import-depth", &o.AstroImportDepth),
		getString("accept-encoding", &o.AcceptEncoding),

		getString("output", &fc.Output),
		getString("store", &fc.Store),
		getString("store-path", &fc.StorePath),
		getInt("threads", &fc.Threads),
		getInt("concurrent", &fc.Concurrent),
		getInt("delay", &fc.Delay),
		getInt("random-delay", &fc.RandomDelay),
		getInt("timeout", &fc.Timeout),
		getString("user-agent", &fc.UserAgent),
		getString("proxy", &fc.Proxy),
		getStrings("header", &fc.Headers),
		getBool("no-redirect", &fc.NoRedirect),
		getInt("retries", &fc.Retries),
		getBool("no-export", &fc.NoExport),
		getBool("json", &fc.JSON),
		getBool("quiet", &fc.Quiet),
		getString("log-file", &fc.LogFile),
	)
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("query_rule", func(fl validator.FieldLevel) bool {
		_, err := offline.ParseQueryReplacements([]string{fl.Field().String()})
		return err == nil
	})
	return v
}
