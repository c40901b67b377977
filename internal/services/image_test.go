package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	objects map[string][]byte
	types   map[string]string
	failKey string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == f.failKey {
		return "", errors.New("bucket rejected write")
	}
	f.objects[key] = data
	f.types[key] = contentType
	return f.PublicURL(key), nil
}

func (f *fakeStorage) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageService_UploadImage(t *testing.T) {
	storage := newFakeStorage()
	svc := NewImageService(storage)

	result, err := svc.UploadImage(context.Background(), testPNG(t, 40, 20), "maps/indochine.png", MapVariants)
	require.NoError(t, err)

	assert.Equal(t, "maps/indochine.png", result.Key, "offers reference the original key as given")
	assert.Equal(t, "https://cdn.test/maps/indochine.png", result.URL)
	assert.Equal(t, 40, result.Width)
	assert.Equal(t, 20, result.Height)

	// original plus one object per variant, stored beside it
	assert.Contains(t, storage.objects, "maps/indochine.png")
	assert.Contains(t, storage.objects, "maps/indochine.medium.png")
	assert.Contains(t, storage.objects, "maps/indochine.large.png")
	assert.Equal(t, "image/png", storage.types["maps/indochine.medium.png"])

	require.Len(t, result.Variants, 2)
	assert.Equal(t, "https://cdn.test/maps/indochine.medium.png", result.Variants["medium"])
	assert.Equal(t, "https://cdn.test/maps/indochine.large.png", result.Variants["large"])
}

func TestImageService_UploadImage_LogoVariants(t *testing.T) {
	storage := newFakeStorage()
	svc := NewImageService(storage)

	result, err := svc.UploadImage(context.Background(), testPNG(t, 300, 300), "logos/indochine.png", LogoVariants)
	require.NoError(t, err)

	assert.Contains(t, result.Variants, "thumbnail")
	assert.Contains(t, result.Variants, "medium")
	assert.Contains(t, storage.objects, "logos/indochine.thumbnail.png")
}

func TestImageService_UploadImage_RejectsNonImage(t *testing.T) {
	svc := NewImageService(newFakeStorage())

	_, err := svc.UploadImage(context.Background(), []byte("<svg></svg>"), "maps/overlay.svg", MapVariants)
	assert.Error(t, err)
}

func TestImageService_UploadImage_StorageError(t *testing.T) {
	storage := newFakeStorage()
	storage.failKey = "maps/indochine.png"
	svc := NewImageService(storage)

	_, err := svc.UploadImage(context.Background(), testPNG(t, 10, 10), "maps/indochine.png", nil)
	assert.Error(t, err)
}

func TestImageService_DeleteImage(t *testing.T) {
	storage := newFakeStorage()
	svc := NewImageService(storage)

	result, err := svc.UploadImage(context.Background(), testPNG(t, 40, 20), "maps/indochine.png", MapVariants)
	require.NoError(t, err)
	require.Len(t, storage.objects, 3)

	require.NoError(t, svc.DeleteImage(context.Background(), result))
	assert.Empty(t, storage.objects)
}
