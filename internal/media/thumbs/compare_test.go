package thumbs

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// encodePNG renders a width x height image where each pixel's color is
// chosen by the fill function, and returns the encoded PNG bytes.
func encodePNG(t *testing.T, width, height int, fill func(x, y int) color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill(x, y))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func solid(c color.Color) func(x, y int) color.Color {
	return func(int, int) color.Color { return c }
}

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{A: 255}
	red   = color.RGBA{R: 200, G: 30, B: 30, A: 255}
)

func TestSimilar_Reflexive(t *testing.T) {
	c := NewComparator()
	img := encodePNG(t, 64, 48, func(x, y int) color.Color {
		if (x+y)%2 == 0 {
			return white
		}
		return red
	})

	same, err := c.Similar(img, img)
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if !same {
		t.Error("image must be similar to itself")
	}
}

func TestSimilar_Commutative(t *testing.T) {
	c := NewComparator()
	a := encodePNG(t, 64, 48, solid(white))
	b := encodePNG(t, 64, 48, solid(black))

	ab, err := c.Similar(a, b)
	if err != nil {
		t.Fatalf("Similar(a,b): %v", err)
	}
	ba, err := c.Similar(b, a)
	if err != nil {
		t.Fatalf("Similar(b,a): %v", err)
	}
	if ab != ba {
		t.Errorf("comparison not commutative: ab=%v ba=%v", ab, ba)
	}
}

func TestSimilar_DistinctImages(t *testing.T) {
	c := NewComparator()
	a := encodePNG(t, 64, 48, solid(white))
	b := encodePNG(t, 64, 48, solid(black))

	same, err := c.Similar(a, b)
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if same {
		t.Error("black and white images must not be similar")
	}
}

func TestSimilar_IgnoresBottomFraction(t *testing.T) {
	c := NewComparator()

	// Identical except for the bottom 10% of rows, where page numbers and
	// footers live.
	a := encodePNG(t, 100, 100, func(x, y int) color.Color {
		if y >= 90 {
			return black
		}
		return red
	})
	b := encodePNG(t, 100, 100, func(x, y int) color.Color {
		if y >= 90 {
			return white
		}
		return red
	})

	same, err := c.Similar(a, b)
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if !same {
		t.Error("images differing only below the crop line must be similar")
	}
}

func TestSimilar_ResolutionMismatch(t *testing.T) {
	c := NewComparator()

	// The same solid slide exported at two resolutions. The larger one is
	// downscaled to match; content is unchanged so they must be similar.
	small := encodePNG(t, 60, 45, solid(red))
	large := encodePNG(t, 120, 90, solid(red))

	same, err := c.Similar(small, large)
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if !same {
		t.Error("same content at different resolutions must be similar")
	}
}

func TestSimilar_MalformedBytes(t *testing.T) {
	c := NewComparator()
	valid := encodePNG(t, 8, 8, solid(white))

	if _, err := c.Similar([]byte("not an image"), valid); err == nil {
		t.Error("expected error for malformed first image")
	}
	if _, err := c.Similar(valid, []byte{0xde, 0xad}); err == nil {
		t.Error("expected error for malformed second image")
	}
}

func TestBlurHash(t *testing.T) {
	img := encodePNG(t, 120, 90, solid(red))

	hash, err := BlurHash(img)
	if err != nil {
		t.Fatalf("BlurHash: %v", err)
	}
	if hash == "" {
		t.Error("expected non-empty blurhash")
	}

	// Deterministic for the same input.
	again, err := BlurHash(img)
	if err != nil {
		t.Fatalf("BlurHash: %v", err)
	}
	if hash != again {
		t.Errorf("blurhash not deterministic: %q vs %q", hash, again)
	}
}

func TestBlurHash_MalformedBytes(t *testing.T) {
	if _, err := BlurHash([]byte("junk")); err == nil {
		t.Error("expected error for malformed image bytes")
	}
}
