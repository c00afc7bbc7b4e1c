package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MarcChen/CertifyHub/internal/browser"
	"github.com/MarcChen/CertifyHub/internal/examtopics"
	"github.com/MarcChen/CertifyHub/internal/export"
	"github.com/MarcChen/CertifyHub/internal/fetch"
	"github.com/MarcChen/CertifyHub/internal/harvest"
	"github.com/MarcChen/CertifyHub/internal/identity"
	"github.com/MarcChen/CertifyHub/internal/merge"
	"github.com/MarcChen/CertifyHub/internal/store"
)

var version = "dev"

var (
	certification string
	mode          string
	topic         int
	maxQuestions  int
	startQuestion int
	batchSize     int
	recursive     bool
	proxyURL      string
	rotateProxies bool
	showUI        bool
	outputFile    string
	timeout       time.Duration
	verbose       bool

	exportFormat string
	exportOut    string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "certifyhub",
		Short:   "Harvest certification exam questions into a local dataset",
		Version: version,
		Long: `certifyhub collects practice questions for certification exams from
their public discussion pages. It walks the freely viewable listing
pages first, then recovers the remaining questions one search query at
a time, and merges everything into a single JSON dataset that survives
interruptions and can be resumed.`,
		Example: `  # Harvest the default certification end to end
  certifyhub

  # Only the free view pages for the Terraform associate exam
  certifyhub -c terraform-associate -m views

  # Resume a search-phase run with a proxy pool and a visible browser
  certifyhub -m search --rotate-proxies --showui

  # Cap the dataset at the first 50 questions
  certifyhub --max-questions 50`,
		Args:         cobra.NoArgs,
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&certification, "certification", "c", examtopics.DefaultCertification, "Certification to harvest (see --help for known keys)")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", "all", "Harvest mode (views, search, all)")
	rootCmd.Flags().IntVarP(&topic, "topic", "T", 1, "Exam topic number")
	rootCmd.Flags().IntVar(&maxQuestions, "max-questions", 0, "Highest question number to collect (0 for no limit)")
	rootCmd.Flags().IntVar(&startQuestion, "start-question", 0, "First question for the search phase (default: after the free pages)")
	rootCmd.Flags().IntVarP(&batchSize, "batch-size", "b", 3, "Concurrent searches per batch")
	rootCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Keep walking view pages past the free ones")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", os.Getenv("CERTIFYHUB_PROXY"), "Proxy URL for the browser, defaults to CERTIFYHUB_PROXY env var")
	rootCmd.Flags().BoolVar(&rotateProxies, "rotate-proxies", false, "Fetch a public proxy pool and rotate through it")
	rootCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Dataset file path (default: data/<certification>.json)")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 60*time.Second, "Per-page fetch timeout")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	exportCmd := &cobra.Command{
		Use:   "export [dataset.json]",
		Short: "Render a harvested dataset as markdown, csv or json",
		Example: `  # Turn a dataset into a self-test study guide
  certifyhub export data/terraform-associate.json -f markdown -o guide.md`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Export format (markdown, csv, json)")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	st := store.Open(args[0])
	ds, ok, err := st.Load()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no dataset at %s", args[0])
	}

	out, err := export.Format(ds, exportFormat)
	if err != nil {
		return err
	}
	if exportOut == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(exportOut, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Export written to: %s\n", exportOut)
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	log := newLogger()

	session, err := harvest.NewSession(certification, harvest.Mode(mode), topic, startQuestion, maxQuestions, batchSize, recursive)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if outputFile == "" {
		outputFile = filepath.Join("data", session.Config.Key+".json")
	}
	st := store.Open(outputFile)

	merger := merge.New(examtopics.PhaseView)
	if ds, ok, err := st.Load(); err != nil {
		return err
	} else if ok {
		merger.Seed(ds.Questions)
		session.SetTotal(ds.TotalQuestions)
		log.Info().Int("questions", len(ds.Questions)).Str("path", st.Path()).Msg("resuming from existing dataset")
	}

	rotator := identity.NewRotator(identity.Options{
		Proxies:      splitProxies(proxyURL),
		RequireProxy: false,
	})
	if rotateProxies {
		src := identity.NewPoolSource(log)
		if n := src.Refresh(ctx, rotator); n == 0 {
			log.Warn().Msg("proxy pool refresh found nothing, continuing without")
		} else {
			log.Info().Int("proxies", rotator.ProxyCount()).Msg("proxy pool loaded")
		}
	}

	b, err := browser.New(browser.Config{
		ProxyURL: proxyURL,
		Headless: !showUI,
	})
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer b.Close()

	fetcher := fetch.NewBrowserFetcher(b, timeout, log)
	retry := fetch.DefaultRetry

	var viewReport harvest.ViewReport
	var searchReport harvest.SearchReport

	if session.Mode != harvest.ModeSearch {
		vh := harvest.NewViewHarvester(fetcher, retry, rotator, merger, st, log)
		viewReport, err = vh.Run(ctx, session)
		if err != nil {
			if errors.Is(err, harvest.ErrNoListing) && session.Mode == harvest.ModeViews {
				return err
			}
			if !errors.Is(err, harvest.ErrNoListing) {
				return err
			}
			// Mode all continues into search as long as a resumed total
			// bounds the range; Run below reports the fatal case itself.
			log.Warn().Msg("view phase recovered nothing, attempting search phase")
		}
	}

	if session.Mode != harvest.ModeViews {
		sh := harvest.NewSearchHarvester(fetcher, retry, rotator, merger, st, log)
		searchReport, err = sh.Run(ctx, session)
		if err != nil {
			return err
		}
	}

	stats := harvest.Collect(session, merger, viewReport, searchReport)
	stats.Fetches = fetcher.Fetches()
	stats.Render(os.Stdout)
	log.Info().Str("path", st.Path()).Int("questions", merger.Len()).Msg("dataset written")
	return ctx.Err()
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func splitProxies(raw string) []string {
	if raw == "" {
		return nil
	}
	return []string{raw}
}
