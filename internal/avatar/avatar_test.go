package avatar

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcess_DownscalesLargeImage(t *testing.T) {
	p := NewProcessor(512, 512, 85)

	pic, err := p.Process(pngBytes(t, 1024, 512), "me.PNG")
	require.NoError(t, err)
	assert.Equal(t, ".png", pic.Ext)
	assert.Equal(t, "image/png", pic.ContentType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(pic.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 512, cfg.Width)
	assert.Equal(t, 256, cfg.Height)
}

func TestProcess_NeverUpscales(t *testing.T) {
	p := NewProcessor(512, 512, 85)

	pic, err := p.Process(pngBytes(t, 64, 32), "small.png")
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(pic.Data))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestProcess_JPEGUsesCanonicalExtension(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 800, 1600))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	pic, err := NewProcessor(100, 100, 80).Process(buf.Bytes(), "photo.jpeg")
	require.NoError(t, err)
	assert.Equal(t, ".jpg", pic.Ext)
	assert.Equal(t, "image/jpeg", pic.ContentType)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(pic.Data))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 100, cfg.Height)
}

func TestProcess_NonImagePassesThrough(t *testing.T) {
	data := []byte("definitely not an image")

	tests := []struct {
		filename    string
		wantExt     string
		contentType string
	}{
		{"fake.png", ".png", "image/png"},
		{"PHOTO.JPEG", ".jpeg", "image/jpeg"},
		{"me.webp", ".webp", "image/webp"},
		{"notes.txt", ".bin", "application/octet-stream"},
		{"evil.html", ".bin", "application/octet-stream"},
		{"evil.svg", ".bin", "application/octet-stream"},
		{"blob", ".bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			pic, err := NewProcessor(512, 512, 85).Process(data, tt.filename)
			require.NoError(t, err)
			assert.Equal(t, data, pic.Data)
			assert.Equal(t, tt.wantExt, pic.Ext)
			assert.Equal(t, tt.contentType, pic.ContentType)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType(".PNG"))
	assert.Equal(t, "image/jpeg", ContentType(".jpg"))
	assert.Equal(t, "application/octet-stream", ContentType(".html"))
	assert.Equal(t, "application/octet-stream", ContentType(""))
}

func TestCalculateScaledDimensions(t *testing.T) {
	p := NewProcessor(340, 500, 85)
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"fits", 300, 400, 300, 400},
		{"too wide", 680, 500, 340, 250},
		{"too tall", 340, 1000, 170, 500},
		{"extreme ratio", 10000, 1, 340, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := p.calculateScaledDimensions(tt.width, tt.height)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}
