package hash

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// createTestImage creates a simple test image.
func createTestImage(width, height int, fill color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

// createGradientImage creates a gradient test image.
func createGradientImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gray := uint8((x + y) * 255 / (width + height))
			img.Set(x, y, color.RGBA{gray, gray, gray, 255})
		}
	}
	return img
}

func TestPerceptualHasher_ComputeHashes(t *testing.T) {
	ph := NewPerceptualHasher()
	img := createGradientImage(100, 100)

	pair, err := ph.ComputeHashes(img)
	if err != nil {
		t.Fatalf("ComputeHashes failed: %v", err)
	}

	if pair.PHash == 0 && pair.DHash == 0 {
		t.Error("Expected non-zero fingerprints for gradient image")
	}
}

func TestPerceptualHasher_NilImage(t *testing.T) {
	ph := NewPerceptualHasher()

	_, err := ph.ComputeHashes(nil)
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage, got %v", err)
	}
}

func TestPerceptualHasher_ZeroDimensionImage(t *testing.T) {
	ph := NewPerceptualHasher()
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))

	_, err := ph.ComputeHashes(img)
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage, got %v", err)
	}
}

func TestPerceptualHasher_UndecodableBytes(t *testing.T) {
	ph := NewPerceptualHasher()

	_, err := ph.ComputeHashesFromBytes([]byte("not an image"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage, got %v", err)
	}
}

func TestSameImageIdenticalHashes(t *testing.T) {
	ph := NewPerceptualHasher()
	img := createGradientImage(100, 100)

	pair1, _ := ph.ComputeHashes(img)
	pair2, _ := ph.ComputeHashes(img)

	if pair1 != pair2 {
		t.Error("Same image should produce identical fingerprint pairs")
	}
}

func TestDifferentImagesProduceDifferentHashes(t *testing.T) {
	ph := NewPerceptualHasher()

	white := createTestImage(100, 100, color.White)
	gradient := createGradientImage(100, 100)

	p1, _ := ph.ComputeHashes(white)
	p2, _ := ph.ComputeHashes(gradient)

	if p1.PHash == p2.PHash && p1.DHash == p2.DHash {
		t.Error("Different images should produce different fingerprints")
	}
}

func BenchmarkComputeHashes(b *testing.B) {
	ph := NewPerceptualHasher()
	img := createGradientImage(500, 500)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ph.ComputeHashes(img)
	}
}
