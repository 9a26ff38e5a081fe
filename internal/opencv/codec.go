// Package opencv implements imageio.Codec on top of gocv. OpenCV decodes color images in
// BGR order; the codec converts to RGB on load and back to BGR on save.
package opencv

import (
	"fmt"
	"os"

	"cluster-matcher/internal/imageio"
	"cluster-matcher/internal/models"

	"gocv.io/x/gocv"
)

var _ imageio.Codec = (*Codec)(nil)

type Codec struct{}

func NewCodec() *Codec { return &Codec{} }

func (c *Codec) Name() string { return "opencv" }

func (c *Codec) LoadColor(path string) (*models.RGBImage, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	bgr := gocv.IMRead(path, gocv.IMReadColor)
	defer bgr.Close()
	if err := validateMat(bgr, 3, "color load"); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", imageio.ErrDecode, path, err)
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(bgr, &rgb, gocv.ColorBGRToRGB)

	return &models.RGBImage{
		Width:  rgb.Cols(),
		Height: rgb.Rows(),
		Pix:    rgb.ToBytes(),
	}, nil
}

func (c *Codec) LoadGray(path string) (*models.GrayImage, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open mask: %w", err)
	}

	gray := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer gray.Close()
	if err := validateMat(gray, 1, "grayscale load"); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", imageio.ErrDecode, path, err)
	}

	return &models.GrayImage{
		Width:  gray.Cols(),
		Height: gray.Rows(),
		Pix:    gray.ToBytes(),
	}, nil
}

func (c *Codec) Save(path string, img *models.RGBImage) error {
	if err := img.Validate(); err != nil {
		return fmt.Errorf("invalid image for %s: %w", path, err)
	}

	rgb, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, img.Pix)
	if err != nil {
		return fmt.Errorf("Mat creation failed: %w", err)
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)

	if !gocv.IMWrite(path, bgr) {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}

func validateMat(mat gocv.Mat, channels int, operation string) error {
	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}
	if mat.Rows() <= 0 || mat.Cols() <= 0 {
		return fmt.Errorf("Mat has invalid dimensions %dx%d for operation: %s", mat.Cols(), mat.Rows(), operation)
	}
	if mat.Channels() != channels {
		return fmt.Errorf("%s requires %d channels, got %d", operation, channels, mat.Channels())
	}
	if !mat.IsContinuous() {
		return fmt.Errorf("Mat is not continuous for operation: %s", operation)
	}
	return nil
}
