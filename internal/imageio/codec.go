// Package imageio defines how the pipeline reads images and masks and writes rendered
// clusters. Codecs always hand back pixels in canonical RGB order, whatever the backend's
// native channel order is.
package imageio

import (
	"errors"

	"cluster-matcher/internal/models"
)

// ErrDecode marks a file that exists but could not be decoded.
var ErrDecode = errors.New("decode failed")

type Codec interface {
	Name() string
	LoadColor(path string) (*models.RGBImage, error)
	LoadGray(path string) (*models.GrayImage, error)
	Save(path string, img *models.RGBImage) error
}
