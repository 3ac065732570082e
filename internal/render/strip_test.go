package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	return img
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRenderStrip(t *testing.T) {
	r := NewStripRenderer(Config{Width: 64, Height: 16, CheckerSize: 4})

	red := color.RGBA{R: 255, A: 255}
	transparent := color.RGBA{B: 255, A: 0}
	data, err := r.RenderStrip([]color.RGBA{red, transparent}, 0, 0)
	if err != nil {
		t.Fatalf("RenderStrip failed: %v", err)
	}

	img := decodePNG(t, data)
	if got := img.Bounds(); got != image.Rect(0, 0, 64, 16) {
		t.Fatalf("unexpected bounds %v", got)
	}

	// Opaque half shows the colors
	if got := rgbaAt(img, 10, 2); got != red {
		t.Errorf("expected red at top left, got %v", got)
	}
	if got := rgbaAt(img, 50, 2); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("expected opaque blue at top right, got %v", got)
	}

	// Transparent samples leave the checkerboard visible
	got := rgbaAt(img, 50, 13)
	if got != checkerLight && got != checkerDark {
		t.Errorf("expected checkerboard at bottom right, got %v", got)
	}
	if got := rgbaAt(img, 10, 13); got != red {
		t.Errorf("expected red at bottom left, got %v", got)
	}
}

func TestRenderStripCustomSize(t *testing.T) {
	r := NewStripRenderer(Config{Width: 64, Height: 16})

	data, err := r.RenderStrip([]color.RGBA{{G: 255, A: 255}}, 10, 4)
	if err != nil {
		t.Fatalf("RenderStrip failed: %v", err)
	}
	if got := decodePNG(t, data).Bounds(); got != image.Rect(0, 0, 10, 4) {
		t.Fatalf("unexpected bounds %v", got)
	}
}

func TestCreateEmptyStrip(t *testing.T) {
	r := NewStripRenderer(Config{Width: 32, Height: 8})

	data, err := r.CreateEmptyStrip(0, 0)
	if err != nil {
		t.Fatalf("CreateEmptyStrip failed: %v", err)
	}
	img := decodePNG(t, data)
	if got := img.Bounds(); got != image.Rect(0, 0, 32, 8) {
		t.Fatalf("unexpected bounds %v", got)
	}
	if _, _, _, a := img.At(3, 3).RGBA(); a != 0 {
		t.Fatalf("expected transparent pixel, got alpha %d", a)
	}
}
