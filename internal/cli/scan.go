package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/narscan/internal/config"
	"github.com/vvka-141/narscan/internal/costguard"
	"github.com/vvka-141/narscan/internal/engine"
	"github.com/vvka-141/narscan/internal/fetch"
	"github.com/vvka-141/narscan/internal/logging"
	"github.com/vvka-141/narscan/internal/matcher"
	"github.com/vvka-141/narscan/internal/pipeline"
	"github.com/vvka-141/narscan/internal/targets"
	"github.com/vvka-141/narscan/internal/tui"
	"github.com/vvka-141/narscan/internal/ui"
	"github.com/vvka-141/narscan/pkg/narscan"
)

type scanFlagValues struct {
	needle         string
	rules          string
	yaraRuleset    string
	path           string
	paths          string
	hydraEvalURL   string
	parallelism    int
	allowExpensive bool
	config         string
	cdnURL         string
	region         string
	logFile        string
}

var scanFlags scanFlagValues

// newDetector returns the region detector for a run. A configured region
// replaces the instance metadata probe.
var newDetector = func(region string) costguard.RegionDetector {
	if region != "" {
		return costguard.StaticDetector(region)
	}
	imds := costguard.NewIMDSDetector()
	return costguard.DetectorFunc(func(ctx context.Context) (string, error) {
		return tui.RunWithSpinner(ctx, "Detecting AWS region", imds.Region)
	})
}

// newBackends returns the factory the cost guard builds the fetcher with.
var newBackends = func(cfg config.Config, parallelism int) costguard.FetcherFactory {
	return &backendFactory{cfg: cfg, parallelism: parallelism}
}

type backendFactory struct {
	cfg         config.Config
	parallelism int
}

func (f *backendFactory) CDN() (narscan.Fetcher, error) {
	fetcher, err := fetch.NewCDNFetcher(f.cfg.CDNURL, f.parallelism)
	if err != nil {
		return nil, err
	}
	return fetcher, nil
}

func (f *backendFactory) ObjectStore(ctx context.Context) (narscan.Fetcher, error) {
	fetcher, err := fetch.NewS3Fetcher(ctx, f.s3Options())
	if err != nil {
		return nil, err
	}
	return fetcher, nil
}

// s3Options addresses the bucket in the region its reads are free from.
func (f *backendFactory) s3Options() fetch.S3Options {
	return fetch.S3Options{
		Bucket:   f.cfg.S3Bucket,
		Region:   f.cfg.ExpectedRegion,
		Endpoint: f.cfg.S3Endpoint,
	}
}

func registerScanFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&scanFlags.needle, "needle", "", "Exact byte sequence to search for")
	flags.StringVar(&scanFlags.rules, "rules", "", "YAML rule set to match files against")
	flags.StringVar(&scanFlags.yaraRuleset, "yara-ruleset", "", "Alias for --rules")
	_ = flags.MarkHidden("yara-ruleset")

	flags.StringVar(&scanFlags.path, "path", "", "Single store path to check")
	flags.StringVar(&scanFlags.paths, "paths", "", "File with newline-separated store paths to check")
	flags.StringVar(&scanFlags.hydraEvalURL, "hydra-eval-url", "", "Hydra evaluation whose output paths to check")

	flags.IntVar(&scanFlags.parallelism, "parallelism", narscan.DefaultParallelism, "Number of store paths processed concurrently")
	flags.BoolVar(&scanFlags.allowExpensive, "allow-possibly-expensive-run", false,
		"Read large batches from the requester-pays bucket even outside "+narscan.CacheRegion)

	flags.StringVar(&scanFlags.config, "config", "", "Config file (default ./"+config.ConfigFileName+" if present)")
	flags.StringVar(&scanFlags.cdnURL, "cdn-url", "", "Binary cache URL (default "+narscan.DefaultCDNURL+")")
	flags.StringVar(&scanFlags.region, "region", "", "Assume this AWS region instead of probing instance metadata")
	flags.StringVar(&scanFlags.logFile, "log-file", "", "Also write a detailed log to this file")

	cmd.MarkFlagsMutuallyExclusive("needle", "rules", "yara-ruleset")
	cmd.MarkFlagsMutuallyExclusive("path", "paths", "hydra-eval-url")

	registerCompletions(cmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	cfg, err := config.Resolve(scanFlags.config, os.Getenv)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)

	verbose := getVerboseFlag(cmd)
	logger := logging.New(logging.Options{
		Verbose: verbose,
		Output:  cmd.ErrOrStderr(),
		File:    cfg.LogFile,
	})
	defer logger.Close()

	scanCfg := narscan.ScanConfig{
		Needle:         scanFlags.needle,
		RulesFile:      rulesFile(),
		Parallelism:    cfg.Parallelism,
		AllowExpensive: scanFlags.allowExpensive,
		CDNURL:         cfg.CDNURL,
		S3Bucket:       cfg.S3Bucket,
		S3Endpoint:     cfg.S3Endpoint,
		ExpectedRegion: cfg.ExpectedRegion,
		Region:         cfg.Region,
		Verbose:        verbose,
	}
	if err := scanCfg.Validate(); err != nil {
		return err
	}

	scanCfg.Targets, err = targets.Collect(targets.Options{
		Path:         scanFlags.path,
		PathsFile:    scanFlags.paths,
		HydraEvalURL: scanFlags.hydraEvalURL,
	})
	if err != nil {
		return err
	}
	if len(scanCfg.Targets) == 0 {
		return fmt.Errorf("no paths to check: %w", narscan.ErrNoTargets)
	}

	m, err := buildMatcher(scanCfg)
	if err != nil {
		return err
	}
	logger.Verbose("Matching with %s against %d store paths", m.Name(), len(scanCfg.Targets))

	fetcher, err := selectBackend(cmd.Context(), scanCfg, cfg, logger)
	if err != nil {
		return err
	}

	eng, err := engine.New(
		pipeline.New(fetcher, m, logger),
		ui.NewConsoleReporter(cmd.OutOrStdout()),
		logger,
		scanCfg.Parallelism,
	)
	if err != nil {
		return err
	}

	// The batch itself always runs to completion.
	summary := eng.Run(context.Background(), scanCfg.Targets)
	logger.Info("%s", ui.FormatSummary(summary))
	return nil
}

// applyFlagOverrides lets explicitly set flags win over file and environment.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("parallelism") {
		cfg.Parallelism = scanFlags.parallelism
	}
	if flags.Changed("cdn-url") {
		cfg.CDNURL = scanFlags.cdnURL
	}
	if flags.Changed("region") {
		cfg.Region = scanFlags.region
	}
	if flags.Changed("log-file") {
		cfg.LogFile = scanFlags.logFile
	}
}

func rulesFile() string {
	if scanFlags.rules != "" {
		return scanFlags.rules
	}
	return scanFlags.yaraRuleset
}

func buildMatcher(c narscan.ScanConfig) (narscan.Matcher, error) {
	if c.Needle != "" {
		m, err := matcher.NewNeedleMatcher([]byte(c.Needle))
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	m, err := matcher.LoadRules(c.RulesFile)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// selectBackend runs the cost guard. Ctrl+C aborts the region probe and the
// countdown of an overridden run.
func selectBackend(parent context.Context, scanCfg narscan.ScanConfig, cfg config.Config, logger narscan.Logger) (narscan.Fetcher, error) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	guard := &costguard.Guard{
		Detector:       newDetector(cfg.Region),
		AllowExpensive: scanCfg.AllowExpensive,
		ExpectedRegion: cfg.ExpectedRegion,
		Logger:         logger,
	}

	fetcher, decision, err := guard.Select(ctx, len(scanCfg.Targets), newBackends(cfg, scanCfg.Parallelism))
	if err != nil {
		return nil, err
	}
	logger.Verbose("Fetching through %s (region %q)", fetcher.Name(), decision.Region)

	if decision.Overridden {
		if !tui.IsInteractive() {
			logger.Error("Reading %d store paths from the requester-pays bucket from region %q; egress may be billed",
				len(scanCfg.Targets), decision.Region)
			return fetcher, nil
		}
		if err := ui.NewCostWarning().Confirm(ctx, len(scanCfg.Targets), decision.Region, cfg.ExpectedRegion); err != nil {
			return nil, fmt.Errorf("expensive run aborted: %w", err)
		}
	}

	return fetcher, nil
}
