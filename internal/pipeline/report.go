package pipeline

import (
	"fmt"
	"os"

	"cluster-matcher/internal/models"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// reportRow is one CSV line; the csv tags form the header.
type reportRow struct {
	Image      string  `csv:"Image"`
	Cluster    int     `csv:"Cluster"`
	IoU        float64 `csv:"IoU"`
	OutputPath string  `csv:"Output Path"`
}

// WriteReport writes one header row and one row per matched image, in the given order.
func WriteReport(path string, results []models.MatchResult) error {
	rows := make([]*reportRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, &reportRow{
			Image:      r.ImageID,
			Cluster:    r.BestCluster,
			IoU:        r.Score,
			OutputPath: r.OutputPath,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := gocsv.Marshal(rows, f); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

// WriteSummary stores the batch summary as YAML.
func WriteSummary(path string, summary models.BatchSummary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
