package config

import (
	"github.com/jaeles-project/sitemirror/core"
	"github.com/spf13/pflag"
)

// RegisterFlags declares every flag Load reads.
func RegisterFlags(flags *pflag.FlagSet) {
	defaults := core.DefaultOptions()

	flags.String("config", "", "YAML config file (flags set on the command line win)")
	flags.StringP("output", "o", "mirror", "Output folder for the offline copy")
	flags.String("store", "memory", "Content store: memory, file or sqlite")
	flags.String("store-path", "", "Directory (file) or database path (sqlite) of the content store")
	flags.Bool("no-export", false, "Crawl only, do not write the offline copy")

	flags.IntP("depth", "d", defaults.MaxDepth, "Maximum path depth of followed pages (0 for no limit)")
	flags.Bool("single-page", false, "Only mirror the initial page and its assets")
	flags.Bool("single-foreign-page", false, "Follow at most one page on an external domain")
	flags.Bool("disable-javascript", false, "Do not download scripts and strip them from pages")
	flags.Bool("disable-styles", false, "Do not download stylesheets")
	flags.Bool("disable-fonts", false, "Do not download fonts")
	flags.Bool("disable-images", false, "Do not download images")
	flags.Bool("disable-files", false, "Do not download documents and archives")
	flags.StringArray("ignore-regex", []string{}, "Skip URLs matching this regex (repeatable)")
	flags.StringArray("replace-query-string", []string{}, "Query string rule 'pattern -> replacement' used in file names (repeatable)")
	flags.StringArray("allowed-domain-for-external-files", []string{}, "External domain allowed for static files, '*' wildcards allowed (repeatable)")
	flags.StringArray("allowed-domain-for-crawling", []string{}, "External domain allowed for crawling, '*' wildcards allowed (repeatable)")
	flags.Bool("remove-unwanted-code", false, "Remove analytics and tracking snippets from pages")
	flags.Int("astro-import-depth", defaults.AstroImportDepth, "Maximum nesting of inlined Astro module imports")
	flags.String("accept-encoding", defaults.AcceptEncoding, "Accept-Encoding header sent with requests")

	flags.IntP("threads", "t", 1, "Number of sites crawled in parallel")
	flags.IntP("concurrent", "c", 5, "Maximum concurrent requests per domain")
	flags.IntP("delay", "k", 0, "Delay between requests to the same domain (second)")
	flags.IntP("random-delay", "K", 0, "Extra random delay added to --delay (second)")
	flags.IntP("timeout", "m", 10, "Request timeout (second)")
	flags.StringP("user-agent", "u", "web", "User agent: web, mobi or a literal value")
	flags.StringP("proxy", "p", "", "Proxy (Ex: http://127.0.0.1:8080)")
	flags.StringArrayP("header", "H", []string{}, "Header to send, 'Name: value' (repeatable)")
	flags.Bool("no-redirect", false, "Do not follow redirects")
	flags.Int("retries", 2, "Retries for failed requests and 429/5xx responses")

	flags.Bool("json", false, "Print found URLs as JSON lines")
	flags.BoolP("quiet", "q", false, "Only print URLs")
	flags.String("log-file", "", "Also write logs to this file (rotated)")
}
