package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cluster-matcher/internal/config"
	"cluster-matcher/internal/models"
)

// Discover lists every image in cfg.ImageDir carrying cfg.ImageExt, sorted by file name.
// The mask path is derived from the image id; whether it exists is left to the worker.
func Discover(cfg config.Config) ([]models.Task, error) {
	entries, err := os.ReadDir(cfg.ImageDir)
	if err != nil {
		return nil, fmt.Errorf("read image directory: %w", err)
	}

	var tasks []models.Task
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !strings.EqualFold(ext, cfg.ImageExt) {
			continue
		}
		id := strings.TrimSuffix(name, ext)
		tasks = append(tasks, models.Task{
			ImageID:   id,
			ImagePath: filepath.Join(cfg.ImageDir, name),
			MaskPath:  filepath.Join(cfg.MaskDir, id+cfg.MaskExt),
		})
	}
	return tasks, nil
}
