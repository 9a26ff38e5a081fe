package models

import (
	"fmt"
	"image"
)

// RGBImage is a decoded color image in canonical R,G,B byte order, row-major, 3 bytes per pixel.
type RGBImage struct {
	Width  int
	Height int
	Pix    []uint8
}

// GrayImage is a single-channel intensity image, row-major, 1 byte per pixel.
type GrayImage struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewRGBImage(width, height int) *RGBImage {
	return &RGBImage{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

func NewGrayImage(width, height int) *GrayImage {
	return &GrayImage{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

func (img *RGBImage) PixelCount() int { return img.Width * img.Height }

func (img *GrayImage) PixelCount() int { return img.Width * img.Height }

// Validate checks that the pixel buffer matches the declared dimensions.
func (img *RGBImage) Validate() error {
	if img == nil {
		return fmt.Errorf("image is nil")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", img.Width, img.Height)
	}
	if len(img.Pix) != img.Width*img.Height*3 {
		return fmt.Errorf("pixel buffer length %d does not match %dx%dx3", len(img.Pix), img.Width, img.Height)
	}
	return nil
}

func (img *GrayImage) Validate() error {
	if img == nil {
		return fmt.Errorf("mask is nil")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", img.Width, img.Height)
	}
	if len(img.Pix) != img.Width*img.Height {
		return fmt.Errorf("pixel buffer length %d does not match %dx%d", len(img.Pix), img.Width, img.Height)
	}
	return nil
}

// Features returns one 3-component color vector per pixel. All rows share one backing array.
func (img *RGBImage) Features() [][]float64 {
	n := img.PixelCount()
	flat := make([]float64, n*3)
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		o := i * 3
		flat[o] = float64(img.Pix[o])
		flat[o+1] = float64(img.Pix[o+1])
		flat[o+2] = float64(img.Pix[o+2])
		rows[i] = flat[o : o+3 : o+3]
	}
	return rows
}

// ToRGBA converts to an opaque image.RGBA for encoders from the image package.
func (img *RGBImage) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	n := img.PixelCount()
	for i := 0; i < n; i++ {
		out.Pix[i*4] = img.Pix[i*3]
		out.Pix[i*4+1] = img.Pix[i*3+1]
		out.Pix[i*4+2] = img.Pix[i*3+2]
		out.Pix[i*4+3] = 0xff
	}
	return out
}

// Binarize marks every pixel whose intensity equals target.
func (img *GrayImage) Binarize(target uint8) BinaryMask {
	mask := make(BinaryMask, len(img.Pix))
	for i, v := range img.Pix {
		mask[i] = v == target
	}
	return mask
}
