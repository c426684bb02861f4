// Package main provides the PPC bulk export analyzer CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lvonguyen/ppc-analyzer/internal/analysis"
	"github.com/lvonguyen/ppc-analyzer/internal/config"
	"github.com/lvonguyen/ppc-analyzer/internal/reporter"
	"github.com/lvonguyen/ppc-analyzer/internal/server"
	"github.com/lvonguyen/ppc-analyzer/internal/source"
	"github.com/lvonguyen/ppc-analyzer/internal/store"
)

// Options holds command line options
type Options struct {
	Mode       string // analyze, sheets, list, delete, serve
	ConfigPath string
	Input      string // local path or s3://bucket/key
	Sheet      string
	TargetACoS float64
	Name       string
	Owner      string
	ID         string
	Save       bool
	OutputDir  string
	Verbose    bool
}

func main() {
	opts := parseFlags()

	// Initialize logger
	var logger *zap.Logger
	var err error
	if opts.Verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if opts.TargetACoS > 0 {
		cfg.Analysis.TargetACoS = opts.TargetACoS
	}
	if opts.OutputDir != "" {
		cfg.Reporter.OutputDir = opts.OutputDir
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}

	logger.Info("Starting PPC Analyzer",
		zap.String("mode", opts.Mode),
		zap.String("config", opts.ConfigPath),
	)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received shutdown signal")
		cancel()
	}()

	// Execute based on mode
	var execErr error
	switch opts.Mode {
	case "analyze":
		execErr = runAnalyze(ctx, opts, cfg, logger)
	case "sheets":
		execErr = runSheets(ctx, opts, cfg)
	case "list":
		execErr = runList(ctx, opts, cfg)
	case "delete":
		execErr = runDelete(ctx, opts, cfg, logger)
	case "serve":
		execErr = runServe(ctx, cfg, logger)
	default:
		logger.Fatal("Unknown mode", zap.String("mode", opts.Mode))
	}

	if execErr != nil {
		logger.Error("Execution failed", zap.Error(execErr))
		os.Exit(1)
	}

	logger.Info("PPC Analyzer complete")
}

func parseFlags() *Options {
	opts := &Options{}

	flag.StringVar(&opts.Mode, "mode", "analyze", "Mode: analyze, sheets, list, delete, serve")
	flag.StringVar(&opts.ConfigPath, "config", "configs/config.yaml", "Path to config file")
	flag.StringVar(&opts.Input, "input", "", "Bulk export workbook (path or s3://bucket/key)")
	flag.StringVar(&opts.Sheet, "sheet", "", "Sheet to analyze (default: auto-select)")
	flag.Float64Var(&opts.TargetACoS, "target-acos", 0, "Target ACoS percentage (overrides config)")
	flag.StringVar(&opts.Name, "name", "", "Name for the saved analysis")
	flag.StringVar(&opts.Owner, "owner", "local", "Owner ID for saved analyses")
	flag.StringVar(&opts.ID, "id", "", "Saved analysis ID (delete mode)")
	flag.BoolVar(&opts.Save, "save", false, "Save the analysis to the store")
	flag.StringVar(&opts.OutputDir, "output", "", "Output directory for reports (overrides config)")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Enable verbose logging")
	flag.Parse()

	return opts
}

// runAnalyze analyzes one bulk export and writes reports
func runAnalyze(ctx context.Context, opts *Options, cfg *config.Config, logger *zap.Logger) error {
	if opts.Input == "" {
		return errors.New("-input is required")
	}

	fetcher, err := inputFetcher(ctx, opts.Input, cfg)
	if err != nil {
		return err
	}

	sheet, err := source.Load(ctx, opts.Input, opts.Sheet, fetcher)
	if err != nil {
		return err
	}
	logger.Info("Sheet loaded", zap.String("sheet", sheet.Name), zap.Int("rows", len(sheet.Rows)))

	res, err := analysis.NewAnalyzer(logger).Analyze(sheet.Rows, cfg.Analysis.TargetACoS)
	if err != nil {
		return err
	}

	name := opts.Name
	if name == "" {
		name = sheet.Name
	}

	paths, err := reporter.New(cfg.Reporter).GenerateAll(reporter.ReportData{
		Name:        name,
		Result:      res,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}
	for _, p := range paths {
		logger.Info("Report generated", zap.String("path", p))
	}

	if opts.Save {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		id, err := st.Save(ctx, opts.Owner, name, sheet.Rows, res, cfg.Analysis.TargetACoS)
		if err != nil {
			return err
		}
		logger.Info("Analysis saved", zap.String("id", id))
	}

	printSummary(name, res)
	return nil
}

// inputFetcher returns an S3 fetcher for s3:// input and nil otherwise
func inputFetcher(ctx context.Context, input string, cfg *config.Config) (source.Fetcher, error) {
	if !source.IsS3URI(input) {
		return nil, nil
	}
	f, err := source.NewS3Fetcher(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// runSheets lists the sheets of a workbook
func runSheets(ctx context.Context, opts *Options, cfg *config.Config) error {
	if opts.Input == "" {
		return errors.New("-input is required")
	}
	fetcher, err := inputFetcher(ctx, opts.Input, cfg)
	if err != nil {
		return err
	}
	wb, err := source.OpenInput(ctx, opts.Input, fetcher)
	if err != nil {
		return err
	}
	defer wb.Close()

	for _, name := range wb.ListSheets() {
		fmt.Println(name)
	}
	return nil
}

// runList prints the owner's saved analyses
func runList(ctx context.Context, opts *Options, cfg *config.Config) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.List(ctx, opts.Owner)
	if err != nil {
		return err
	}
	for _, r := range records {
		spend := 0.0
		if r.Result != nil {
			spend = r.Result.Metrics.TotalSpend
		}
		fmt.Printf("%s  %s  %-30s  target %.1f%%  spend $%.2f\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Name, r.TargetACoS, spend)
	}
	return nil
}

// runDelete removes one saved analysis
func runDelete(ctx context.Context, opts *Options, cfg *config.Config, logger *zap.Logger) error {
	if opts.ID == "" {
		return errors.New("-id is required")
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(ctx, opts.Owner, opts.ID); err != nil {
		return err
	}
	logger.Info("Analysis deleted", zap.String("id", opts.ID))
	return nil
}

// runServe serves the HTTP API until the context is cancelled
func runServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(st, cfg, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// printSummary prints the analysis summary
func printSummary(name string, res *analysis.Result) {
	m := res.Metrics
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    PPC Performance Summary                       ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Report: %s\n", name)
	fmt.Printf("║  Spend: $%.2f   Sales: $%.2f   ACoS: %.2f%% (target %.1f%%)\n", m.TotalSpend, m.TotalSales, m.ACoS, res.TargetACoS)
	fmt.Printf("║  ROAS: %.2fx   CTR: %.2f%%   CPC: $%.2f   CVR: %.2f%%\n", m.ROAS, m.CTR, m.CPC, m.CVR)
	fmt.Printf("║  Clicks: %.0f   Impressions: %.0f   Orders: %.0f\n", m.TotalClicks, m.TotalImpressions, m.TotalOrders)
	fmt.Printf("║  Wasted: $%.2f   Inefficient: $%.2f\n", res.WastedSpend.TotalWasted, res.InefficientSpend.TotalInefficient)
	fmt.Println("║")
	fmt.Println("║  Recommendations:")
	for _, r := range res.Recommendations {
		fmt.Printf("║    [%s] %s\n", r.Severity, r.Title)
	}
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
}
