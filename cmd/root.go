package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jaeles-project/sitemirror/core"
	"github.com/jaeles-project/sitemirror/internal/config"
	"github.com/jaeles-project/sitemirror/internal/crawler"
	"github.com/jaeles-project/sitemirror/internal/export"
	"github.com/jaeles-project/sitemirror/internal/logging"
	"github.com/jaeles-project/sitemirror/internal/netutil"
	"github.com/jaeles-project/sitemirror/internal/registry"
	"github.com/jaeles-project/sitemirror/internal/store"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

const statsInterval = 10 * time.Second

// SiteSummary is printed per site with --json once the crawl is done.
type SiteSummary struct {
	Site         string                 `json:"site"`
	OutputDir    string                 `json:"output_dir,omitempty"`
	Pages        int64                  `json:"pages"`
	Assets       int64                  `json:"assets"`
	Bytes        int64                  `json:"bytes"`
	URLsFound    int64                  `json:"urls_found"`
	Errors       int64                  `json:"errors"`
	Skipped      int                    `json:"skipped"`
	ExportErrors int                    `json:"export_errors"`
	Elapsed      string                 `json:"elapsed"`
	Processors   []core.ProcessorTiming `json:"processors,omitempty"`
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   core.CLIName,
		Short: "Mirror a website for offline browsing",
		Long:  fmt.Sprintf("Website mirroring tool written in Go - %s by %s", core.VERSION, core.AUTHOR),
		RunE:  runRoot,
	}
	registerGlobalFlags(cmd)
	cmd.SilenceUsage = true
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	if showVersion, err := cmd.Flags().GetBool("version"); err == nil && showVersion {
		fmt.Printf("Version: %s\n", core.VERSION)
		fmt.Println(renderExamples())
		return nil
	}

	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	crawlerConfig, runtimeOpts, err := config.NewLoader(cmd).Load()
	if err != nil {
		return err
	}
	closer := logging.Configure(core.Logger, logging.Options{
		Debug:   debug,
		Verbose: verbose,
		Quiet:   crawlerConfig.Quiet,
		LogFile: runtimeOpts.LogFile,
	})
	defer closer.Close()

	targets, err := gatherTargets(cmd)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		core.Logger.Warn("No site in list. Please check your site input again")
		return nil
	}

	contents, err := store.Open(runtimeOpts.StoreKind, runtimeOpts.StorePath)
	if err != nil {
		return err
	}
	defer contents.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	threads := runtimeOpts.Threads
	if threads <= 0 {
		threads = 1
	}

	var wg sync.WaitGroup
	inputChan := make(chan string, threads)
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range inputChan {
				outDir := runtimeOpts.OutputDir
				if len(targets) > 1 {
					outDir = filepath.Join(outDir, siteFolder(raw))
				}
				if err := mirrorSite(ctx, raw, outDir, crawlerConfig, runtimeOpts, contents); err != nil {
					core.Logger.Errorf("Failed to mirror %s: %s", raw, err)
				}
			}
		}()
	}

	for _, target := range targets {
		inputChan <- target
	}
	close(inputChan)

	wg.Wait()
	core.Logger.Info("Done.")
	return nil
}

func mirrorSite(ctx context.Context, raw, outDir string, cfg config.CrawlerConfig, runtime config.RuntimeOptions, contents store.Store) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	urlsOut, err := core.NewOutput(outDir, "_urls.txt")
	if err != nil {
		return err
	}
	defer urlsOut.Close()

	cfg.Registry = registry.NewURLRegistry()
	c, err := crawler.NewCrawler(ctx, strings.TrimSpace(raw), cfg, contents, urlsOut)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go reportProgress(raw, c.Stats, done)
	result, err := c.Run()
	close(done)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		core.Logger.Warnf("Crawl of %s interrupted: %s", raw, err)
	}

	if err := writeSkipped(outDir, result.Skipped); err != nil {
		core.Logger.Warnf("Failed to write skipped list: %s", err)
	}

	exportErrors := 0
	if !runtime.NoExport {
		initial := netutil.Parse(result.Site, nil)
		index, err := export.New(outDir, initial, c.Manager, contents, cfg.Options).Export(result.Resources)
		if err != nil {
			return err
		}
		for _, entry := range index.Entries {
			if entry.Error != "" {
				exportErrors++
			}
		}
	}

	summary := SiteSummary{
		Site:         result.Site,
		Pages:        c.Stats.GetPagesVisited(),
		Assets:       c.Stats.GetAssetsStored(),
		Bytes:        c.Stats.GetBytesStored(),
		URLsFound:    c.Stats.GetURLsFound(),
		Errors:       c.Stats.GetErrors(),
		Skipped:      len(result.Skipped),
		ExportErrors: exportErrors,
		Elapsed:      result.Elapsed.Round(time.Millisecond).String(),
	}
	if !runtime.NoExport {
		summary.OutputDir = outDir
	}
	if cfg.JSONOutput {
		summary.Processors = c.Manager.Stats().Snapshot()
		if data, err := jsoniter.MarshalToString(summary); err == nil {
			fmt.Println(data)
		}
		return nil
	}

	core.Logger.Infof("Mirrored %s: %d pages, %d assets, %d bytes, %d errors in %s",
		summary.Site, summary.Pages, summary.Assets, summary.Bytes, summary.Errors, summary.Elapsed)
	for _, timing := range c.Manager.Stats().Snapshot() {
		core.Logger.Debugf("%s::%s calls=%d total=%s", timing.Processor, timing.Operation, timing.Calls, timing.Total)
	}
	return nil
}

func reportProgress(site string, stats *core.CrawlStats, done <-chan struct{}) {
	start := time.Now()
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			elapsed := time.Since(start).Round(time.Second)
			core.Logger.Infof("Stats %s [%s]: URLs: %d, Stored: %d, Errors: %d, RPS: %.2f",
				site, elapsed, stats.GetURLsFound(), stats.GetAssetsStored(), stats.GetErrors(), stats.GetRPS(elapsed))
		}
	}
}

func writeSkipped(outDir string, skipped []core.SkippedURL) error {
	if len(skipped) == 0 {
		return nil
	}
	out, err := core.NewOutput(outDir, "_skipped.txt")
	if err != nil {
		return err
	}
	defer out.Close()
	for _, s := range skipped {
		out.WriteToFile(fmt.Sprintf("[%s] - %s - from %s", s.Reason, s.URL, s.SourceURL))
	}
	return nil
}

func siteFolder(raw string) string {
	u := netutil.Parse(strings.TrimSpace(raw), nil)
	if u.Host == "" {
		return "site"
	}
	folder := u.Host
	if u.Port != 0 {
		folder = fmt.Sprintf("%s_%d", folder, u.Port)
	}
	return folder
}

func gatherTargets(cmd *cobra.Command) ([]string, error) {
	var targets []string
	if site, err := cmd.Flags().GetString("site"); err == nil && strings.TrimSpace(site) != "" {
		targets = append(targets, strings.TrimSpace(site))
	} else if err != nil {
		return nil, err
	}

	if listPath, err := cmd.Flags().GetString("sites"); err == nil && strings.TrimSpace(listPath) != "" {
		lines, err := readLines(listPath)
		if err != nil {
			return nil, err
		}
		targets = append(targets, lines...)
	} else if err != nil {
		return nil, err
	}

	if len(targets) > 0 {
		return targets, nil
	}
	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			value := strings.TrimSpace(scanner.Text())
			if value == "" {
				continue
			}
			targets = append(targets, value)
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	return targets, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open site list: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func renderExamples() string {
	h := "\nExamples Command:\n"
	h += `sitemirror -s "https://target.com/"` + "\n"
	h += `sitemirror -s "https://target.com/" -o mirror -c 10 -d 3 --store sqlite` + "\n"
	h += `sitemirror -s "https://target.com/" --single-page --disable-images` + "\n"
	h += `cat sites.txt | sitemirror -o mirrors -t 4 --json` + "\n"
	return h
}

func registerGlobalFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("site", "s", "", "Site to mirror")
	flags.StringP("sites", "S", "", "Site list to mirror")
	config.RegisterFlags(flags)

	flags.BoolP("debug", "", false, "Turn on debug mode")
	flags.BoolP("verbose", "v", false, "Turn on verbose")
	flags.BoolP("version", "", false, "Check version")

	flags.SortFlags = false
}
