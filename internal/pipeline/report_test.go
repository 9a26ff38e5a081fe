package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"cluster-matcher/internal/models"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	results := []models.MatchResult{
		{ImageID: "b", BestCluster: 3, Score: 0.6, OutputPath: "out/b_cluster3_iou0.60.png", Success: true},
		{ImageID: "a", BestCluster: 0, Score: 0.8123, OutputPath: "out/a_cluster0_iou0.81.png", Success: true},
	}
	if err := WriteReport(path, results); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"Image", "Cluster", "IoU", "Output Path"},
		{"b", "3", "0.6", "out/b_cluster3_iou0.60.png"},
		{"a", "0", "0.8123", "out/a_cluster0_iou0.81.png"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteReportHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	if err := WriteReport(path, nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Image,Cluster,IoU,Output Path\n" {
		t.Errorf("report = %q", data)
	}
}

func TestWriteReportBadPath(t *testing.T) {
	if err := WriteReport(filepath.Join(t.TempDir(), "missing", "r.csv"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.yaml")
	in := models.BatchSummary{
		TotalFound:          3,
		TotalProcessed:      2,
		AverageScore:        0.7,
		PercentageProcessed: 200.0 / 3,
		Skipped:             map[models.SkipReason]int{models.SkipMissingMask: 1},
	}
	if err := WriteSummary(path, in); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out models.BatchSummary
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}
