package pipeline

import (
	"context"
	"fmt"
	"os"

	"cluster-matcher/internal/config"
	"cluster-matcher/internal/imageio"
	"cluster-matcher/internal/logger"
	"cluster-matcher/internal/timing"
)

// RunBatch discovers tasks, processes them with a Worker pool and writes the report files.
// Only setup and report I/O errors are returned; per-image failures show up in the summary.
func RunBatch(ctx context.Context, cfg config.Config, codec imageio.Codec, log logger.Logger) (*BatchReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	tasks, err := Discover(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	timer := timing.NewTracker()
	worker := NewWorker(cfg, codec, log, timer)
	report := NewCoordinator(worker, cfg.Workers, log).Run(ctx, tasks)

	if stages := timer.Fields(); len(stages) > 0 {
		log.Info("Coordinator", "stage timings", stages)
	}

	if err := WriteReport(cfg.ReportPath, report.Results); err != nil {
		return report, err
	}
	log.Info("Coordinator", "report written", map[string]interface{}{
		"path": cfg.ReportPath,
		"rows": len(report.Results),
	})

	if cfg.SummaryPath != "" {
		if err := WriteSummary(cfg.SummaryPath, report.Summary); err != nil {
			return report, err
		}
	}
	return report, nil
}
