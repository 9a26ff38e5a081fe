// Package config holds the immutable batch configuration. Values are fixed before a run
// starts and passed by value into the coordinator.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid configuration")

type Codec string

const (
	CodecOpenCV Codec = "opencv"
	CodecNative Codec = "native"
)

// NoMatchPolicy decides what happens when every cluster scores 0 against the ground truth.
type NoMatchPolicy string

const (
	// NoMatchSkip reports the image as no_match and leaves it out of the processed count.
	NoMatchSkip NoMatchPolicy = "skip"
	// NoMatchRecord counts the image as processed with cluster -1 and score 0.
	NoMatchRecord NoMatchPolicy = "record"
)

type Config struct {
	Clusters      int           `yaml:"clusters"`
	TargetValue   uint8         `yaml:"target_value"`
	Seed          int64         `yaml:"seed"`
	Workers       int           `yaml:"workers"`
	MaxIterations int           `yaml:"max_iterations"`
	Tolerance     float64       `yaml:"tolerance"`
	ImageDir      string        `yaml:"image_dir"`
	MaskDir       string        `yaml:"mask_dir"`
	OutputDir     string        `yaml:"output_dir"`
	ReportPath    string        `yaml:"report_path"`
	SummaryPath   string        `yaml:"summary_path"`
	ImageExt      string        `yaml:"image_ext"`
	MaskExt       string        `yaml:"mask_ext"`
	OutputExt     string        `yaml:"output_ext"`
	Codec         Codec         `yaml:"codec"`
	NoMatchPolicy NoMatchPolicy `yaml:"no_match_policy"`
}

// Default returns the stock configuration rooted at baseDir.
func Default(baseDir string) Config {
	return Config{
		Clusters:      10,
		TargetValue:   38,
		Seed:          42,
		Workers:       runtime.NumCPU(),
		MaxIterations: 300,
		Tolerance:     1e-4,
		ImageDir:      filepath.Join(baseDir, "images"),
		MaskDir:       filepath.Join(baseDir, "masks"),
		OutputDir:     filepath.Join(baseDir, "output"),
		ReportPath:    filepath.Join(baseDir, "resumen_resultados.csv"),
		ImageExt:      ".jpg",
		MaskExt:       ".png",
		OutputExt:     ".png",
		Codec:         CodecOpenCV,
		NoMatchPolicy: NoMatchSkip,
	}
}

// Load overlays a YAML file on top of base. Keys missing from the file keep base's values.
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.normalized(), nil
}

func (c Config) normalized() Config {
	c.ImageExt = normalizeExt(c.ImageExt)
	c.MaskExt = normalizeExt(c.MaskExt)
	c.OutputExt = normalizeExt(c.OutputExt)
	c.Codec = Codec(strings.ToLower(string(c.Codec)))
	c.NoMatchPolicy = NoMatchPolicy(strings.ToLower(string(c.NoMatchPolicy)))
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return c
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Validate returns every problem found, joined, wrapped in ErrInvalid.
func (c Config) Validate() error {
	var problems []string
	if c.Clusters < 1 {
		problems = append(problems, fmt.Sprintf("clusters must be >= 1, got %d", c.Clusters))
	}
	if c.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be >= 1, got %d", c.Workers))
	}
	if c.MaxIterations < 1 {
		problems = append(problems, fmt.Sprintf("max_iterations must be >= 1, got %d", c.MaxIterations))
	}
	if c.Tolerance < 0 {
		problems = append(problems, fmt.Sprintf("tolerance must be >= 0, got %g", c.Tolerance))
	}
	for _, field := range []struct{ name, value string }{
		{"image_dir", c.ImageDir},
		{"mask_dir", c.MaskDir},
		{"output_dir", c.OutputDir},
		{"report_path", c.ReportPath},
		{"image_ext", c.ImageExt},
		{"mask_ext", c.MaskExt},
		{"output_ext", c.OutputExt},
	} {
		if field.value == "" {
			problems = append(problems, field.name+" must not be empty")
		}
	}
	switch c.Codec {
	case CodecOpenCV, CodecNative:
	default:
		problems = append(problems, fmt.Sprintf("unknown codec %q", c.Codec))
	}
	switch c.NoMatchPolicy {
	case NoMatchSkip, NoMatchRecord:
	default:
		problems = append(problems, fmt.Sprintf("unknown no_match_policy %q", c.NoMatchPolicy))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}
