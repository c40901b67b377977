package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// ImageService ingests the raster assets behind an event page: artist logos
// and seating map backgrounds. Each upload produces resized variants so the
// storefront never serves the full-size original.
type ImageService struct {
	storage StorageService
}

// NewImageService creates a new image service
func NewImageService(storage StorageService) *ImageService {
	return &ImageService{storage: storage}
}

// ImageVariant defines one resized rendition of an uploaded asset.
type ImageVariant struct {
	Name   string
	Width  int
	Height int
}

// Map backgrounds stay large; logos only need the smaller sizes.
var (
	LogoVariants = []ImageVariant{
		{Name: "thumbnail", Width: 150, Height: 150},
		{Name: "medium", Width: 400, Height: 400},
	}
	MapVariants = []ImageVariant{
		{Name: "medium", Width: 800, Height: 600},
		{Name: "large", Width: 1600, Height: 1200},
	}
)

// ImageUploadResult describes a stored asset and its variants.
type ImageUploadResult struct {
	Key        string            `json:"key"`
	URL        string            `json:"url"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Variants   map[string]string `json:"variants"`
	UploadedAt time.Time         `json:"uploaded_at"`
}

// UploadImage decodes, validates and stores an asset under the given key,
// plus resized variants beside it. Offers reference the original key, so the
// caller owns the naming; variants live at "<key-minus-ext>.<name>.<ext>".
func (s *ImageService) UploadImage(ctx context.Context, data []byte, key string, variants []ImageVariant) (*ImageUploadResult, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	bounds := img.Bounds()

	originalURL, err := s.storage.Upload(ctx, key, data, imageContentType(format))
	if err != nil {
		return nil, fmt.Errorf("failed to upload original image: %w", err)
	}

	result := &ImageUploadResult{
		Key:        key,
		URL:        originalURL,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Variants:   map[string]string{},
		UploadedAt: time.Now(),
	}

	for _, variant := range variants {
		resized := imaging.Fit(img, variant.Width, variant.Height, imaging.Lanczos)

		encoded, err := encodeImage(resized, format)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s variant: %w", variant.Name, err)
		}

		url, err := s.storage.Upload(ctx, variantKey(key, variant.Name), encoded, imageContentType(format))
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.Name, err)
		}

		result.Variants[variant.Name] = url
	}

	return result, nil
}

// DeleteImage removes an asset and the variants that were derived from it.
func (s *ImageService) DeleteImage(ctx context.Context, result *ImageUploadResult) error {
	if err := s.storage.Delete(ctx, result.Key); err != nil {
		return err
	}

	for name := range result.Variants {
		if err := s.storage.Delete(ctx, variantKey(result.Key, name)); err != nil {
			return err
		}
	}

	return nil
}

func variantKey(key, name string) string {
	ext := filepath.Ext(key)
	return strings.TrimSuffix(key, ext) + "." + name + ext
}

func encodeImage(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func imageContentType(format string) string {
	if format == "png" {
		return "image/png"
	}
	return "image/jpeg"
}
