package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestNormalize_Dimensions(t *testing.T) {
	tests := []struct {
		name          string
		w, h, maxSize int
		wantW, wantH  int
	}{
		{"landscape scaled", 400, 200, 100, 100, 50},
		{"portrait scaled", 200, 400, 100, 50, 100},
		{"square scaled", 300, 300, 100, 100, 100},
		{"within bounds kept", 80, 60, 100, 80, 60},
		{"no limit", 120, 90, 0, 120, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Normalize(pngBytes(t, tt.w, tt.h), tt.maxSize)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("DecodeConfig() error = %v", err)
			}
			if format != "jpeg" {
				t.Errorf("format = %q, want jpeg", format)
			}
			if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestNormalize_NotImage(t *testing.T) {
	_, err := Normalize([]byte("plain text"), 100)
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("error = %v, want ErrNotImage", err)
	}
}

func TestEncodeBase64(t *testing.T) {
	b64, err := EncodeBase64(pngBytes(t, 10, 10), 1024)
	if err != nil {
		t.Fatalf("EncodeBase64() error = %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(raw)); err != nil {
		t.Errorf("payload is not a JPEG: %v", err)
	}
}

func TestStripDataURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"data:image/jpeg;base64,QUJD", "QUJD"},
		{"data:image/png;base64,", ""},
		{"QUJD", "QUJD"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripDataURL(tt.in); got != tt.want {
			t.Errorf("StripDataURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
