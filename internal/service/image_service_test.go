package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"showcase/internal/config"
	"showcase/internal/models"
	"showcase/internal/testutil"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageService_ProcessResizesMaster(t *testing.T) {
	svc := NewImageService(testutil.NewMemoryImageStore(), nil)

	processed, err := svc.Process(context.Background(), []models.RawImage{{
		OriginalName: "wide.png",
		Extension:    "png",
		Content:      testutil.TinyPNG(t, 2400, 600),
	}})
	require.NoError(t, err)
	require.Len(t, processed, 1)

	img := processed[0]
	assert.Equal(t, MasterMaxSize, img.Width)
	assert.Equal(t, 480, img.Height)
	assert.Contains(t, img.URLPath, "projects/")

	master, format, err := image.Decode(bytes.NewReader(img.Master))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, MasterMaxSize, master.Bounds().Dx())

	thumb, err := webp.Decode(bytes.NewReader(img.Thumbnail))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailMaxSize, thumb.Bounds().Dx())
	assert.Equal(t, 75, thumb.Bounds().Dy())
}

func TestImageService_ProcessKeepsSmallImages(t *testing.T) {
	svc := NewImageService(testutil.NewMemoryImageStore(), nil)

	processed, err := svc.Process(context.Background(), []models.RawImage{{
		OriginalName: "small.png",
		Extension:    "PNG",
		Content:      testutil.TinyPNG(t, 40, 30),
	}})
	require.NoError(t, err)
	assert.Equal(t, 40, processed[0].Width)
	assert.Equal(t, 30, processed[0].Height)
}

func TestImageService_ProcessAcceptsGIF(t *testing.T) {
	svc := NewImageService(testutil.NewMemoryImageStore(), nil)

	palette := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{color.Black, color.White})
	buf := bytes.NewBuffer(nil)
	require.NoError(t, gif.Encode(buf, palette, nil))

	processed, err := svc.Process(context.Background(), []models.RawImage{{
		OriginalName: "anim.gif",
		Extension:    "gif",
		Content:      buf.Bytes(),
	}})
	require.NoError(t, err)
	assert.Equal(t, 8, processed[0].Width)
}

func TestImageService_ProcessRejects(t *testing.T) {
	cfg := &config.Config{ImageMaxUploadSizeMB: 1}
	svc := NewImageService(testutil.NewMemoryImageStore(), cfg)

	tests := []struct {
		name string
		raw  models.RawImage
	}{
		{"empty", models.RawImage{OriginalName: "a.png", Extension: "png"}},
		{"too large", models.RawImage{OriginalName: "a.png", Extension: "png", Content: make([]byte, 1024*1024+1)}},
		{"not an image", models.RawImage{OriginalName: "a.png", Extension: "png", Content: []byte("plain text")}},
		{"wrong extension", models.RawImage{OriginalName: "a.jpg", Extension: "jpg", Content: testutil.TinyPNG(t, 2, 2)}},
		{"truncated", models.RawImage{OriginalName: "a.png", Extension: "png", Content: testutil.TinyPNG(t, 20, 20)[:40]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Process(context.Background(), []models.RawImage{tt.raw})
			assertValidationError(t, err)
		})
	}
}

func TestImageService_PersistAndRemove(t *testing.T) {
	store := testutil.NewMemoryImageStore()
	svc := NewImageService(store, nil)

	processed, err := svc.Process(context.Background(), []models.RawImage{
		{OriginalName: "a.png", Extension: "png", Content: testutil.TinyPNG(t, 3, 3)},
		{OriginalName: "b.png", Extension: "png", Content: testutil.TinyPNG(t, 3, 3)},
	})
	require.NoError(t, err)
	require.NotEqual(t, processed[0].URLPath, processed[1].URLPath)

	require.NoError(t, svc.Persist(context.Background(), processed))
	assert.ElementsMatch(t, []string{
		MasterKey(processed[0].URLPath), ThumbnailKey(processed[0].URLPath),
		MasterKey(processed[1].URLPath), ThumbnailKey(processed[1].URLPath),
	}, store.Keys())
	assert.Equal(t, "/media/"+processed[0].URLPath+".jpg", svc.MasterURL(processed[0].URLPath))
	assert.Equal(t, "/media/"+processed[0].URLPath+"_thumb.webp", svc.ThumbnailURL(processed[0].URLPath))
	assert.Empty(t, svc.MasterURL(""))

	require.NoError(t, svc.Remove(context.Background(), processed))
	assert.Empty(t, store.Keys())
}

// failAfterStore fails every Put after the first n succeed.
type failAfterStore struct {
	*testutil.MemoryImageStore
	n int
}

func (s *failAfterStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	if s.n == 0 {
		return testutil.ErrStoreUnavailable
	}
	s.n--
	return s.MemoryImageStore.Put(ctx, key, contentType, data)
}

func TestImageService_PersistCleansUpPartialWrites(t *testing.T) {
	store := &failAfterStore{MemoryImageStore: testutil.NewMemoryImageStore(), n: 3}
	svc := NewImageService(store, nil)

	processed, err := svc.Process(context.Background(), []models.RawImage{
		{OriginalName: "a.png", Extension: "png", Content: testutil.TinyPNG(t, 3, 3)},
		{OriginalName: "b.png", Extension: "png", Content: testutil.TinyPNG(t, 3, 3)},
	})
	require.NoError(t, err)

	err = svc.Persist(context.Background(), processed)
	require.ErrorIs(t, err, testutil.ErrStoreUnavailable)
	assert.Empty(t, store.Keys())
}
