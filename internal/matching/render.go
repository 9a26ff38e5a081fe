package matching

import (
	"fmt"

	"cluster-matcher/internal/models"
)

// Render copies the pixels of one cluster into an otherwise black image of the same size.
// Rendering NoCluster yields an all-black image.
func Render(img *models.RGBImage, labels models.ClusterAssignment, cluster int) (*models.RGBImage, error) {
	if len(labels) != img.PixelCount() {
		return nil, fmt.Errorf("assignment length %d does not match %dx%d image", len(labels), img.Width, img.Height)
	}
	out := models.NewRGBImage(img.Width, img.Height)
	for i, c := range labels {
		if c != cluster {
			continue
		}
		o := i * 3
		copy(out.Pix[o:o+3], img.Pix[o:o+3])
	}
	return out, nil
}
