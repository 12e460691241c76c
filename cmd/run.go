// Package cmd defines and implements the CLI commands for the leadsweep executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/leadsweep/leadsweep/internal/clock/system"
	"github.com/leadsweep/leadsweep/internal/config"
	"github.com/leadsweep/leadsweep/internal/extract"
	"github.com/leadsweep/leadsweep/internal/fetcher/detector"
	"github.com/leadsweep/leadsweep/internal/fetcher/headless"
	"github.com/leadsweep/leadsweep/internal/fetcher/static"
	"github.com/leadsweep/leadsweep/internal/id/uuid"
	"github.com/leadsweep/leadsweep/internal/input"
	"github.com/leadsweep/leadsweep/internal/logging"
	"github.com/leadsweep/leadsweep/internal/mailer"
	"github.com/leadsweep/leadsweep/internal/pipeline"
	"github.com/leadsweep/leadsweep/internal/probe"
	"github.com/leadsweep/leadsweep/internal/store"
)

type runFlags struct {
	url         []string
	urls        []string
	file        string
	credentials string
	noSend      bool
	headless    bool
	format      string
	subject     string
	bodyFile    string
	outDir      string
}

// newRunCmd creates and configures the 'run' subcommand, which processes a
// batch of company URLs end to end.
func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Probes company sites for emails and optionally sends outreach",
		Long: `Visits each company URL, probes the homepage and common contact
pages for an email address, sends a templated outreach message when
sending is enabled, and writes one result row per company to the
selected output formats.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, flags, args)
		},
	}

	cmd.Flags().StringArrayVar(&flags.url, "url", nil, "company URL to process (repeatable)")
	cmd.Flags().StringSliceVar(&flags.urls, "urls", nil, "comma-separated list of company URLs")
	cmd.Flags().StringVar(&flags.file, "file", "", "file with company URLs, one per line (or first CSV column)")
	cmd.Flags().StringVar(&flags.credentials, "credentials", "", "Gmail OAuth client credentials JSON")
	cmd.Flags().BoolVar(&flags.noSend, "no-send", false, "discover and record emails without sending anything")
	cmd.Flags().BoolVar(&flags.headless, "headless", true, "run the render browser headless")
	cmd.Flags().StringVar(&flags.format, "format", "", "output format: csv, xlsx, sqlite or all")
	cmd.Flags().StringVar(&flags.subject, "subject", "", "outreach email subject")
	cmd.Flags().StringVar(&flags.bodyFile, "body-file", "", "file with the outreach body template")
	cmd.Flags().StringVar(&flags.outDir, "out-dir", "", "directory for result files")

	return cmd
}

func runSweep(cmd *cobra.Command, flags *runFlags, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, flags, cfg)

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	literals := append(append(flags.url, flags.urls...), args...)
	targets, err := input.Load(literals, flags.file)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New("no company URLs given: use --url, --file or positional arguments")
	}

	format, err := store.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	runner, cleanup, err := buildRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("Starting sweep",
		zap.Int("targets", len(targets)),
		zap.Bool("sending", cfg.Mail.Enabled),
	)
	results := runner.Run(ctx, targets)

	runID, err := uuid.New().NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	saver, err := store.NewSaver(format, store.Config{
		Dir:   cfg.Output.Dir,
		RunID: runID,
		Stamp: time.Now(),
	}, logger.Named("store"))
	if err != nil {
		return err
	}
	paths, err := saver.Save(ctx, results)
	if err != nil {
		return fmt.Errorf("saving results: %w", err)
	}

	printSummary(cmd, results, paths)
	return nil
}

// applyRunFlags lets explicitly-set flags override the config file.
func applyRunFlags(cmd *cobra.Command, flags *runFlags, cfg *config.Config) {
	if cmd.Flags().Changed("credentials") {
		cfg.Mail.CredentialsFile = flags.credentials
	}
	if flags.noSend {
		cfg.Mail.Enabled = false
	}
	if cmd.Flags().Changed("headless") {
		cfg.Crawler.Headless = flags.headless
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = flags.format
	}
	if cmd.Flags().Changed("subject") {
		cfg.Mail.Subject = flags.subject
	}
	if cmd.Flags().Changed("body-file") {
		cfg.Mail.BodyFile = flags.bodyFile
	}
	if cmd.Flags().Changed("out-dir") {
		cfg.Output.Dir = flags.outDir
	}
}

// buildRunner wires the pipeline. The returned cleanup tears down the
// headless browser and must be called once the batch is done.
func buildRunner(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pipeline.Runner, func(), error) {
	fetcher := static.New(static.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
	})

	renderer, heuristic, err := buildRenderer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {}
	var rendererFetcher pipeline.Fetcher
	if renderer != nil {
		rendererFetcher = renderer
		cleanup = renderer.Close
	}

	extractor := extract.New(extract.Config{
		PriorityLocals:  cfg.Extract.PriorityLocals,
		ExcludePatterns: cfg.Extract.ExcludePatterns,
	})

	prober := probe.New(
		probe.Config{ContactPaths: cfg.Crawler.ContactPaths},
		fetcher,
		rendererFetcher,
		heuristic,
		extractor,
		logger.Named("probe"),
	)

	var notifier pipeline.Notifier
	if cfg.Mail.Enabled {
		notifier, err = mailer.New(ctx, mailer.Config{
			CredentialsFile: cfg.Mail.CredentialsFile,
			TokenFile:       cfg.Mail.TokenFile,
			MaxRetries:      cfg.Mail.MaxRetries,
		}, logger.Named("mailer"))
		if err != nil {
			cleanup()
			if errors.Is(err, mailer.ErrNoCredentials) {
				return nil, nil, fmt.Errorf("sending is enabled but Gmail is not set up: %w", err)
			}
			return nil, nil, fmt.Errorf("init mailer: %w", err)
		}
	}

	composer, err := buildComposer(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var pacer pipeline.Pacer
	if delay := cfg.Delay(); delay > 0 {
		pacer = rate.NewLimiter(rate.Every(delay), 1)
	}

	return pipeline.NewRunner(
		prober,
		notifier,
		composer,
		pacer,
		system.New(),
		pipeline.RunnerConfig{SendEnabled: cfg.Mail.Enabled},
		logger.Named("runner"),
	), cleanup, nil
}

func buildRenderer(cfg *config.Config, logger *zap.Logger) (*headless.Fetcher, pipeline.RenderDetector, error) {
	if !cfg.Crawler.RenderEnabled {
		return nil, nil, nil
	}
	renderer, err := headless.NewChromedp(headless.Config{
		Headless:          cfg.Crawler.Headless,
		UserAgent:         cfg.Crawler.UserAgent,
		NavigationTimeout: cfg.NavTimeout(),
		SettleWait:        cfg.SettleWait(),
	})
	if err != nil {
		logger.Warn("Renderer unavailable; static fetches only", zap.Error(err))
		return nil, nil, nil
	}
	return renderer, detector.NewHeuristic(cfg.Crawler.PromotionThreshold), nil
}

func buildComposer(cfg *config.Config) (pipeline.Composer, error) {
	body := ""
	if cfg.Mail.BodyFile != "" {
		b, err := os.ReadFile(cfg.Mail.BodyFile)
		if err != nil {
			return nil, fmt.Errorf("reading body template: %w", err)
		}
		body = string(b)
	}
	tmpl, err := mailer.NewTemplate(cfg.Mail.Subject, body)
	if err != nil {
		return nil, fmt.Errorf("parsing message template: %w", err)
	}
	return tmpl, nil
}

func printSummary(cmd *cobra.Command, results []pipeline.Result, paths map[store.Format]string) {
	counts := map[pipeline.Status]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nProcessed %d companies\n", len(results))
	for _, s := range []pipeline.Status{
		pipeline.StatusSuccess,
		pipeline.StatusFoundNotSent,
		pipeline.StatusNoEmail,
		pipeline.StatusFailed,
	} {
		if n := counts[s]; n > 0 {
			fmt.Fprintf(out, "  %-18s %d\n", string(s)+":", n)
		}
	}
	for format, path := range paths {
		fmt.Fprintf(out, "Wrote %s results to %s\n", format, path)
	}
}
