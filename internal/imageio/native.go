package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"cluster-matcher/internal/models"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// NativeCodec decodes with the image package and golang.org/x/image, no cgo required.
type NativeCodec struct {
	JPEGQuality int
}

func NewNativeCodec() *NativeCodec {
	return &NativeCodec{JPEGQuality: 95}
}

func (c *NativeCodec) Name() string { return "native" }

func (c *NativeCodec) LoadColor(path string) (*models.RGBImage, error) {
	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	out := models.NewRGBImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.Height; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+out.Width*4]
		dst := out.Pix[y*out.Width*3 : (y+1)*out.Width*3]
		for x := 0; x < out.Width; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return out, nil
}

func (c *NativeCodec) LoadGray(path string) (*models.GrayImage, error) {
	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	out := models.NewGrayImage(bounds.Dx(), bounds.Dy())
	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < out.Height; y++ {
			off := y * gray.Stride
			copy(out.Pix[y*out.Width:(y+1)*out.Width], gray.Pix[off:off+out.Width])
		}
		return out, nil
	}

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			out.Pix[y*out.Width+x] = g.Y
		}
	}
	return out, nil
}

// Save encodes by file extension: .jpg/.jpeg, .gif, anything else as PNG.
func (c *NativeCodec) Save(path string, img *models.RGBImage) error {
	if err := img.Validate(); err != nil {
		return fmt.Errorf("invalid image for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	rgba := img.ToRGBA()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, rgba, &jpeg.Options{Quality: c.JPEGQuality})
	case ".gif":
		err = gif.Encode(f, rgba, nil)
	default:
		err = png.Encode(f, rgba)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}
