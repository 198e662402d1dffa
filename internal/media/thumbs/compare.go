// Package thumbs compares rasterized slide thumbnails for visual similarity
// and computes BlurHash placeholders for stored slides.
package thumbs

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// defaultCropBottom is the fraction of each image discarded from the
	// bottom before comparing. Footers and page numbers vary between
	// exports without representing a different slide.
	defaultCropBottom = 0.1

	// defaultThreshold is the mean-squared-error cutoff in CIE Lab space
	// (L normalized to [0,1]). Below the cutoff two thumbnails are
	// considered the same slide.
	defaultThreshold = 0.3
)

// Comparator decides whether two slide thumbnails represent the same slide
// despite encoding noise. Comparison is commutative and reflexive but not
// transitive: chains of near-duplicates may not form an equivalence relation.
type Comparator struct {
	CropBottom float64
	Threshold  float64
}

// NewComparator creates a comparator with the default crop and threshold.
func NewComparator() *Comparator {
	return &Comparator{
		CropBottom: defaultCropBottom,
		Threshold:  defaultThreshold,
	}
}

// Similar reports whether the two encoded images show the same slide.
// Malformed image bytes are a fatal input error; callers are responsible
// for supplying valid raster data.
func (c *Comparator) Similar(a, b []byte) (bool, error) {
	imgA, err := decode(a)
	if err != nil {
		return false, fmt.Errorf("decode first image: %w", err)
	}
	imgB, err := decode(b)
	if err != nil {
		return false, fmt.Errorf("decode second image: %w", err)
	}

	// Resample the larger image down to the smaller one. Never upsample;
	// upsampling would manufacture detail that skews the error term.
	boundsA, boundsB := imgA.Bounds(), imgB.Bounds()
	areaA := boundsA.Dx() * boundsA.Dy()
	areaB := boundsB.Dx() * boundsB.Dy()
	switch {
	case areaA < areaB:
		imgB = downscale(imgB, boundsA.Dx(), boundsA.Dy())
	case areaB < areaA:
		imgA = downscale(imgA, boundsB.Dx(), boundsB.Dy())
	}

	mse := labMeanSquaredError(imgA, imgB, c.CropBottom)
	return mse < c.Threshold, nil
}

// decode parses encoded image bytes into an image.Image.
func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// downscale resamples img to width x height using bilinear filtering.
func downscale(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// labMeanSquaredError computes the per-pixel squared difference between the
// two equally sized images in CIE Lab space, summed over all channels of the
// rows that survive the bottom crop, averaged over width*height.
//
// Lab makes the error roughly proportional to perceived visual change, so a
// single threshold works across light and dark slides.
func labMeanSquaredError(a, b image.Image, cropBottom float64) float64 {
	boundsA, boundsB := a.Bounds(), b.Bounds()
	width := min(boundsA.Dx(), boundsB.Dx())
	height := min(boundsA.Dy(), boundsB.Dy())
	if width == 0 || height == 0 {
		return 0
	}

	keepRows := int(float64(height) * (1 - cropBottom))

	var sum float64
	for y := 0; y < keepRows; y++ {
		for x := 0; x < width; x++ {
			lA, aA, bA := labAt(a, boundsA.Min.X+x, boundsA.Min.Y+y)
			lB, aB, bB := labAt(b, boundsB.Min.X+x, boundsB.Min.Y+y)

			dl := lA - lB
			da := aA - aB
			db := bA - bB
			sum += dl*dl + da*da + db*db
		}
	}

	return sum / float64(width*height)
}

// labAt returns the Lab coordinates of one pixel.
func labAt(img image.Image, x, y int) (l, a, b float64) {
	col, ok := colorful.MakeColor(img.At(x, y))
	if !ok {
		// Fully transparent pixel; treat as black.
		return 0, 0, 0
	}
	return col.Lab()
}
