package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"cluster-matcher/internal/config"
	"cluster-matcher/internal/imageio"
	"cluster-matcher/internal/logger"
	"cluster-matcher/internal/opencv"
	"cluster-matcher/internal/pipeline"
)

var runFlags struct {
	configPath string
	imageDir   string
	maskDir    string
	outputDir  string
	reportPath string
	summary    string
	logFormat  string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate every image/mask pair and write the summary report",
	Long: `Run discovers images in the image directory, pairs each with the mask of the
same name in the mask directory, clusters and scores them in parallel, writes one
rendered cluster per image to the output directory and a CSV report.

Clustering constants (clusters, target_value, seed, workers, max_iterations,
tolerance), file extensions, codec and no_match_policy come from the YAML file
given with --config. Directory flags override the file.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.configPath, "config", "", "Path to YAML configuration file")
	f.StringVar(&runFlags.imageDir, "images", "", "Directory of input images (default ./images)")
	f.StringVar(&runFlags.maskDir, "masks", "", "Directory of ground-truth masks (default ./masks)")
	f.StringVar(&runFlags.outputDir, "output", "", "Directory for rendered clusters (default ./output)")
	f.StringVar(&runFlags.reportPath, "report", "", "CSV report path (default ./resumen_resultados.csv)")
	f.StringVar(&runFlags.summary, "summary", "", "Optional YAML batch summary path")
	f.StringVar(&runFlags.logFormat, "log-format", "auto", "Log format: auto, console or json")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(runFlags.logFormat)
	configureRuntime(cfg.Workers, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Application", "starting batch", map[string]interface{}{
		"version":         version,
		"images":          cfg.ImageDir,
		"masks":           cfg.MaskDir,
		"output":          cfg.OutputDir,
		"clusters":        cfg.Clusters,
		"target_value":    cfg.TargetValue,
		"seed":            cfg.Seed,
		"workers":         cfg.Workers,
		"codec":           string(cfg.Codec),
		"no_match_policy": string(cfg.NoMatchPolicy),
	})

	report, err := pipeline.RunBatch(ctx, cfg, newCodec(cfg.Codec), log)
	if err != nil {
		return err
	}

	s := report.Summary
	fmt.Fprintf(cmd.OutOrStdout(), "Images found:        %d\n", s.TotalFound)
	fmt.Fprintf(cmd.OutOrStdout(), "Images processed:    %d\n", s.TotalProcessed)
	fmt.Fprintf(cmd.OutOrStdout(), "Average IoU:         %.4f\n", s.AverageScore)
	fmt.Fprintf(cmd.OutOrStdout(), "Percentage processed: %.2f%%\n", s.PercentageProcessed)
	fmt.Fprintf(cmd.OutOrStdout(), "Report:              %s\n", cfg.ReportPath)

	if ctx.Err() != nil {
		return fmt.Errorf("batch interrupted: %w", context.Cause(ctx))
	}
	return nil
}

func loadConfig() (config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg := config.Default(wd)
	if runFlags.configPath != "" {
		if cfg, err = config.Load(runFlags.configPath, cfg); err != nil {
			return config.Config{}, err
		}
	}

	overrides := []struct {
		value string
		dst   *string
	}{
		{runFlags.imageDir, &cfg.ImageDir},
		{runFlags.maskDir, &cfg.MaskDir},
		{runFlags.outputDir, &cfg.OutputDir},
		{runFlags.reportPath, &cfg.ReportPath},
		{runFlags.summary, &cfg.SummaryPath},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.dst = o.value
		}
	}
	return cfg, cfg.Validate()
}

func newLogger(format string) logger.Logger {
	console := isatty.IsTerminal(os.Stderr.Fd())
	switch format {
	case "console":
		console = true
	case "json":
		console = false
	}
	return logger.New(os.Stderr, logger.LevelFromEnv(), console)
}

func newCodec(c config.Codec) imageio.Codec {
	if c == config.CodecNative {
		return imageio.NewNativeCodec()
	}
	return opencv.NewCodec()
}

// configureRuntime sizes the scheduler for CPU-bound clustering.
func configureRuntime(workers int, log logger.Logger) {
	if workers > runtime.GOMAXPROCS(0) {
		runtime.GOMAXPROCS(workers)
	}
	log.Debug("Application", "runtime configured", map[string]interface{}{
		"gomaxprocs": runtime.GOMAXPROCS(0),
		"num_cpu":    runtime.NumCPU(),
		"go_version": runtime.Version(),
	})
}
