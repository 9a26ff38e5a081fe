package pipeline

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"cluster-matcher/internal/config"
	"cluster-matcher/internal/imageio"
	"cluster-matcher/internal/models"
)

var (
	red   = [3]uint8{200, 30, 30}
	green = [3]uint8{30, 200, 30}
)

// testConfig roots every directory in a fresh temp dir and uses lossless PNG inputs.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default(root)
	cfg.ImageExt = ".png"
	cfg.Codec = config.CodecNative
	cfg.Workers = 2
	for _, dir := range []string{cfg.ImageDir, cfg.MaskDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

// splitImage paints the left half red and the right half green.
func splitImage(width, height int) *models.RGBImage {
	img := models.NewRGBImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := green
			if x < width/2 {
				c = red
			}
			copy(img.Pix[(y*width+x)*3:], c[:])
		}
	}
	return img
}

// leftMask marks the left `cols` columns with value and everything else with 0.
func leftMask(width, height, cols int, value uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < cols; x++ {
			g.SetGray(x, y, color.Gray{Y: value})
		}
	}
	return g
}

func writeImage(t *testing.T, cfg config.Config, id string, img *models.RGBImage) string {
	t.Helper()
	path := filepath.Join(cfg.ImageDir, id+cfg.ImageExt)
	if err := imageio.NewNativeCodec().Save(path, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeMask(t *testing.T, cfg config.Config, id string, mask *image.Gray) string {
	t.Helper()
	path := filepath.Join(cfg.MaskDir, id+cfg.MaskExt)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, mask); err != nil {
		t.Fatal(err)
	}
	return path
}

func taskFor(cfg config.Config, id string) models.Task {
	return models.Task{
		ImageID:   id,
		ImagePath: filepath.Join(cfg.ImageDir, id+cfg.ImageExt),
		MaskPath:  filepath.Join(cfg.MaskDir, id+cfg.MaskExt),
	}
}
