package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/sitemirror/internal/config"
	"github.com/amosWeiskopf/sitemirror/internal/logging"
	"github.com/amosWeiskopf/sitemirror/pkg/analyzer"
	"github.com/amosWeiskopf/sitemirror/pkg/crawler"
	"github.com/amosWeiskopf/sitemirror/pkg/fetcher"
	"github.com/amosWeiskopf/sitemirror/pkg/mirror"
	"github.com/amosWeiskopf/sitemirror/pkg/reporter"
	"github.com/amosWeiskopf/sitemirror/pkg/scope"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes
const (
	exitError              = 1
	exitSitemapUnavailable = 2
)

// exitCodeError carries a process exit status through cobra
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sitemirror",
		Short: "sitemirror - mirror a website to local disk",
		Long: `sitemirror walks a site from its XML sitemap, downloads every page,
stylesheet, script, image and font it references, rewrites absolute links
to root-relative ones and writes the result to a local directory that can
be served from localhost.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	mirrorCmd := &cobra.Command{
		Use:   "mirror",
		Short: "Mirror the configured site",
		Args:  cobra.NoArgs,
		RunE:  runMirror,
	}

	reportCmd := &cobra.Command{
		Use:   "report [FILE]",
		Short: "Summarize a saved mirror report",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReport,
	}

	pathCmd := &cobra.Command{
		Use:   "path [URL]",
		Short: "Print the local file a URL is mirrored to",
		Args:  cobra.ExactArgs(1),
		RunE:  runPath,
	}

	// Mirror command flags
	mirrorCmd.Flags().String("output", "", "Directory the mirror is written to")
	mirrorCmd.Flags().String("sitemap", "", "Sitemap URL the crawl starts from")

	// Report command flags
	reportCmd.Flags().String("format", "text", "Summary format (text, json, markdown, html)")
	reportCmd.Flags().String("out", "", "Output file for the summary")

	// Path command flags
	pathCmd.Flags().String("output", "", "Directory the mirror is written to")

	rootCmd.AddCommand(mirrorCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(pathCmd)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file path")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("report", "", "Report file path")
	rootCmd.PersistentFlags().String("report-format", "", "Report file format (gob, json, sqlite)")

	return rootCmd
}

func runPath(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p := mirror.NewPersister(afero.NewOsFs(), cfg.Mirror.OutputDir, cfg.Site.Origins, pathRules(cfg))
	fmt.Fprintln(cmd.OutOrStdout(), p.LocalPath(scope.Normalize(args[0])))
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("output"); v != "" {
		cfg.Mirror.OutputDir = v
	}
	if v, _ := flags.GetString("sitemap"); v != "" {
		cfg.Site.SitemapURL = v
	}
	if v, _ := flags.GetString("report"); v != "" {
		cfg.Report.File = v
		if !flags.Changed("report-format") {
			cfg.Report.Format = reporter.FormatFromPath(v)
		}
	}
	if v, _ := flags.GetString("report-format"); v != "" {
		cfg.Report.Format = v
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func pathRules(cfg *config.Config) []mirror.PathRule {
	rules := make([]mirror.PathRule, 0, len(cfg.Mirror.PathRules))
	for _, r := range cfg.Mirror.PathRules {
		rules = append(rules, mirror.PathRule{From: r.From, To: r.To})
	}
	return rules
}

func runMirror(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer closer.Close()

	httpFetcher, err := fetcher.New(fetcher.Options{
		UserAgent:    cfg.Crawler.UserAgent,
		Timeout:      cfg.Crawler.Timeout,
		MaxRetries:   cfg.Crawler.MaxRetries,
		RetryBackoff: cfg.Crawler.RetryBackoff,
		MaxBodyBytes: cfg.Crawler.MaxBodyBytes,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	fs := afero.NewOsFs()
	persister := mirror.NewPersister(fs, cfg.Mirror.OutputDir, cfg.Site.Origins, pathRules(cfg))

	c, err := crawler.New(crawler.Options{
		SitemapURL:       cfg.Site.SitemapURL,
		Origins:          cfg.Site.Origins,
		Suffixes:         cfg.Crawler.AllowedSuffixes,
		ProgressInterval: cfg.Crawler.ProgressInterval,
		Logger:           logger,
	}, httpFetcher, persister)
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, crawlErr := c.Crawl(ctx)
	if errors.Is(crawlErr, crawler.ErrSitemapUnavailable) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Could not fetch %s.\n", cfg.Site.SitemapURL)
		fmt.Fprintln(cmd.ErrOrStderr(), "Enable the site's XML sitemap (for WordPress, install the Google XML Sitemaps plugin) and try again.")
		return &exitCodeError{code: exitSitemapUnavailable, err: crawlErr}
	}
	report.OutputDir = cfg.Mirror.OutputDir

	if err := reporter.NewStore(fs).Save(cfg.Report.File, cfg.Report.Format, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	summary := analyzer.New(cfg.Site.Origins, cfg.Crawler.AllowedSuffixes).Analyze(report)
	text, err := reporter.New().GenerateReport(summary, "text")
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	fmt.Fprintf(cmd.OutOrStdout(), "Mirror written to %s, report saved to %s\n", persister.Root(), cfg.Report.File)

	if crawlErr != nil {
		return fmt.Errorf("crawl interrupted: %w", crawlErr)
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	file, format := cfg.Report.File, cfg.Report.Format
	if len(args) == 1 {
		file = args[0]
		if !cmd.Flags().Changed("report-format") {
			format = reporter.FormatFromPath(file)
		}
	}

	report, err := reporter.NewStore(afero.NewOsFs()).Load(file, format)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}

	summary := analyzer.New(cfg.Site.Origins, cfg.Crawler.AllowedSuffixes).Analyze(report)
	outFormat, _ := cmd.Flags().GetString("format")
	out, err := reporter.New().GenerateReport(summary, outFormat)
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}

	if output, _ := cmd.Flags().GetString("out"); output != "" {
		if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report saved to %s\n", output)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		var coded *exitCodeError
		if errors.As(err, &coded) {
			return coded.code
		}
		return exitError
	}
	return 0
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
