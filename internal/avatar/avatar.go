package avatar

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
)

// Picture is a processed upload ready to be stored.
type Picture struct {
	Data        []byte
	Ext         string
	ContentType string
}

// Processor normalises uploaded profile pictures.
type Processor struct {
	maxWidth  int
	maxHeight int
	quality   int // JPEG quality (1-100)
}

// NewProcessor creates a Processor that fits images into maxWidth x maxHeight.
func NewProcessor(maxWidth, maxHeight, quality int) *Processor {
	return &Processor{
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		quality:   quality,
	}
}

// Process downscales data if it decodes as an image larger than the bounding box
// and re-encodes it in its own format. Anything that is not an image is returned unchanged.
func (p *Processor) Process(data []byte, filename string) (*Picture, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Debug("upload is not a decodable image, storing as is", "filename", filename)
		return passthrough(data, filename), nil
	}

	imgFormat, err := imaging.FormatFromExtension(format)
	if err != nil {
		return passthrough(data, filename), nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	originalWidth, originalHeight := bounds.Dx(), bounds.Dy()
	newWidth, newHeight := p.calculateScaledDimensions(originalWidth, originalHeight)
	if newWidth != originalWidth || newHeight != originalHeight {
		img = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
		log.Debug("resized profile picture",
			"from", fmt.Sprintf("%dx%d", originalWidth, originalHeight),
			"to", fmt.Sprintf("%dx%d", newWidth, newHeight))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imgFormat,
		imaging.JPEGQuality(p.quality),
		imaging.PNGCompressionLevel(6),
	); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &Picture{
		Data:        buf.Bytes(),
		Ext:         formatExt(imgFormat),
		ContentType: "image/" + format,
	}, nil
}

// calculateScaledDimensions returns the largest dimensions that fit the bounding box
// while keeping the aspect ratio. Images that already fit are never upscaled.
func (p *Processor) calculateScaledDimensions(width, height int) (int, int) {
	if width <= p.maxWidth && height <= p.maxHeight {
		return width, height
	}

	widthRatio := float64(p.maxWidth) / float64(width)
	heightRatio := float64(p.maxHeight) / float64(height)
	ratio := min(widthRatio, heightRatio)

	return max(1, int(float64(width)*ratio)), max(1, int(float64(height)*ratio))
}

func formatExt(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return ".jpg"
	case imaging.PNG:
		return ".png"
	case imaging.GIF:
		return ".gif"
	case imaging.TIFF:
		return ".tiff"
	case imaging.BMP:
		return ".bmp"
	default:
		return ""
	}
}

// imageTypes maps the extensions a stored picture may carry to their content type.
var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// binaryExt is the extension of stored uploads that do not claim an image type.
const binaryExt = ".bin"

// ContentType returns the content type a stored file with extension ext is served with.
// Anything that is not an image extension is opaque binary data.
func ContentType(ext string) string {
	if ct, ok := imageTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// passthrough keeps undecodable bytes as they are. The client filename only
// contributes its extension, and only when it is an image extension.
func passthrough(data []byte, filename string) *Picture {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := imageTypes[ext]; !ok {
		ext = binaryExt
	}
	return &Picture{
		Data:        data,
		Ext:         ext,
		ContentType: ContentType(ext),
	}
}
