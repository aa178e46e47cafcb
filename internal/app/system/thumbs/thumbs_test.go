package thumbs

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// makePNG renders a width x height gradient and returns it PNG-encoded.
func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestRender(t *testing.T) {
	src := makePNG(t, 800, 600)

	for _, width := range Widths {
		rendered, err := Render(src, width)
		if err != nil {
			t.Fatalf("Render(%d) error = %v", width, err)
		}

		img, format, err := image.Decode(bytes.NewReader(rendered))
		if err != nil {
			t.Fatalf("decode %dpx thumbnail: %v", width, err)
		}
		if format != "png" {
			t.Errorf("Render(%d) format = %q, want %q", width, format, "png")
		}
		if img.Bounds().Dx() != width {
			t.Errorf("Render(%d) width = %d, want %d", width, img.Bounds().Dx(), width)
		}
		// 4:3 source stays 4:3.
		wantHeight := width * 600 / 800
		if img.Bounds().Dy() != wantHeight {
			t.Errorf("Render(%d) height = %d, want %d", width, img.Bounds().Dy(), wantHeight)
		}
	}
}

func TestRender_NarrowSourceKeepsSize(t *testing.T) {
	src := makePNG(t, 50, 40)

	rendered, err := Render(src, 500)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(rendered))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 40 {
		t.Errorf("Render() bounds = %v, want 50x40", img.Bounds())
	}
}

func TestRender_KeepsJPEGEncoding(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}

	rendered, err := Render(buf.Bytes(), 100)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	_, format, err := image.Decode(bytes.NewReader(rendered))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("Render() format = %q, want %q", format, "jpeg")
	}
}

func TestRender_RejectsGarbage(t *testing.T) {
	if _, err := Render([]byte("definitely not an image"), 100); err == nil {
		t.Error("Render() error = nil, want decode failure")
	}
}
