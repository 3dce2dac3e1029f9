// SPDX-License-Identifier: MIT

// Package render converts the 8-bit magnitude and phase views of a
// spectrogram to and from grayscale PNG images. Byte buffers are row-major
// and row 0 is the top of the image, which is how the stft encoders lay
// them out.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
)

// Image wraps a row-major byte buffer with its dimensions.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// NewImage checks that pix holds width*height bytes.
func NewImage(pix []byte, width, height int) (Image, error) {
	if width <= 0 || height <= 0 {
		return Image{}, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if len(pix) != width*height {
		return Image{}, fmt.Errorf("buffer has %d bytes, want %dx%d", len(pix), width, height)
	}
	return Image{Width: width, Height: height, Pix: pix}, nil
}

// Gray returns the image as an *image.Gray sharing no memory with im.
func (im Image) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		copy(g.Pix[y*g.Stride:y*g.Stride+im.Width], im.Pix[y*im.Width:(y+1)*im.Width])
	}
	return g
}

// Encode writes im as an 8-bit grayscale PNG.
func Encode(w io.Writer, im Image) error {
	if err := png.Encode(w, im.Gray()); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// Decode reads a PNG of any color model and returns its luminance.
func Decode(r io.Reader) (Image, error) {
	src, err := png.Decode(r)
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode PNG: %w", err)
	}

	b := src.Bounds()
	im := Image{Width: b.Dx(), Height: b.Dy(), Pix: make([]byte, b.Dx()*b.Dy())}

	if g, ok := src.(*image.Gray); ok {
		for y := 0; y < im.Height; y++ {
			off := (y+b.Min.Y-g.Rect.Min.Y)*g.Stride + (b.Min.X - g.Rect.Min.X)
			copy(im.Pix[y*im.Width:(y+1)*im.Width], g.Pix[off:off+im.Width])
		}
		return im, nil
	}

	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			c := color.GrayModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			im.Pix[y*im.Width+x] = c.Y
		}
	}
	return im, nil
}

// WriteFile encodes im to path.
func WriteFile(path string, im Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(f, im)
}

// ReadFile decodes the PNG at path.
func ReadFile(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, err
	}
	defer f.Close()
	return Decode(f)
}
