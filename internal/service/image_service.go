package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"
	"net/http"
	"strings"

	"showcase/internal/config"
	"showcase/internal/middleware"
	"showcase/internal/models"
	"showcase/internal/observability"
	"showcase/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 5
	MasterMaxSize               = 1920
	ThumbnailMaxSize            = 300
	JPEGQuality                 = 82
	WebPQuality                 = 70
	imageKeyPrefix              = "projects/"
)

// ProcessedImage is an uploaded image after decoding and re-encoding.
// URLPath is the storage key shared by the master and thumbnail files.
type ProcessedImage struct {
	OriginalName string
	Extension    string
	URLPath      string
	Width        int
	Height       int
	Master       []byte
	Thumbnail    []byte
}

// MasterKey is the storage key of the JPEG master for urlPath.
func MasterKey(urlPath string) string {
	return urlPath + ".jpg"
}

// ThumbnailKey is the storage key of the WebP thumbnail for urlPath.
func ThumbnailKey(urlPath string) string {
	return urlPath + "_thumb.webp"
}

type ImageService struct {
	store              storage.ImageStore
	maxUploadSizeBytes int64
}

func NewImageService(store storage.ImageStore, cfg *config.Config) *ImageService {
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	if cfg != nil && cfg.ImageMaxUploadSizeMB > 0 {
		maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
	}
	return &ImageService{
		store:              store,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// MasterURL returns the public URL of the master image for urlPath.
func (s *ImageService) MasterURL(urlPath string) string {
	if urlPath == "" {
		return ""
	}
	return s.store.URL(MasterKey(urlPath))
}

// ThumbnailURL returns the public URL of the thumbnail for urlPath.
func (s *ImageService) ThumbnailURL(urlPath string) string {
	if urlPath == "" {
		return ""
	}
	return s.store.URL(ThumbnailKey(urlPath))
}

// Process decodes every image, bounds its size and encodes the master and
// thumbnail variants. Nothing is written to storage.
func (s *ImageService) Process(ctx context.Context, raws []models.RawImage) ([]ProcessedImage, error) {
	out := make([]ProcessedImage, 0, len(raws))
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		processed, err := s.processOne(raw)
		if err != nil {
			observability.ImagesProcessed.WithLabelValues("rejected").Inc()
			return nil, err
		}
		observability.ImagesProcessed.WithLabelValues("ok").Inc()
		out = append(out, processed)
	}
	return out, nil
}

func (s *ImageService) processOne(raw models.RawImage) (ProcessedImage, error) {
	defer observability.TrackImage()()

	if len(raw.Content) == 0 {
		return ProcessedImage{}, models.NewValidationError(fmt.Sprintf("Image %s is empty", raw.OriginalName))
	}
	if int64(len(raw.Content)) > s.maxUploadSizeBytes {
		return ProcessedImage{}, models.NewValidationError(fmt.Sprintf("Image %s is too large (max %dMB)", raw.OriginalName, s.maxUploadSizeBytes/(1024*1024)))
	}

	detected := http.DetectContentType(raw.Content)
	if !isAllowedImageMIME(detected) {
		return ProcessedImage{}, models.NewValidationError(fmt.Sprintf("Image %s has an unsupported type", raw.OriginalName))
	}

	decoded, format, err := image.Decode(bytes.NewReader(raw.Content))
	if err != nil {
		return ProcessedImage{}, models.NewValidationError(fmt.Sprintf("Image %s could not be decoded", raw.OriginalName))
	}
	if !extensionMatchesFormat(raw.Extension, format) {
		return ProcessedImage{}, models.NewValidationError(fmt.Sprintf("Image %s content does not match extension %s", raw.OriginalName, raw.Extension))
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)
	thumb := resizeToFit(master, ThumbnailMaxSize, ThumbnailMaxSize)

	masterJPG, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return ProcessedImage{}, fmt.Errorf("encode master: %w", err)
	}
	thumbWebP, err := encodeWebP(thumb, WebPQuality)
	if err != nil {
		return ProcessedImage{}, fmt.Errorf("encode thumbnail: %w", err)
	}

	b := master.Bounds()
	return ProcessedImage{
		OriginalName: raw.OriginalName,
		Extension:    raw.Extension,
		URLPath:      imageKeyPrefix + uuid.NewString(),
		Width:        b.Dx(),
		Height:       b.Dy(),
		Master:       masterJPG,
		Thumbnail:    thumbWebP,
	}, nil
}

// Persist writes both variants of every image. On failure the files that
// were already written are removed before the error is returned.
func (s *ImageService) Persist(ctx context.Context, images []ProcessedImage) error {
	var written []string
	for _, img := range images {
		for _, obj := range []struct {
			key, contentType string
			data             []byte
		}{
			{MasterKey(img.URLPath), "image/jpeg", img.Master},
			{ThumbnailKey(img.URLPath), "image/webp", img.Thumbnail},
		} {
			if err := s.store.Put(ctx, obj.key, obj.contentType, obj.data); err != nil {
				if cleanupErr := s.store.Delete(context.WithoutCancel(ctx), written...); cleanupErr != nil {
					middleware.Logger.ErrorContext(ctx, "failed to clean up partially stored images",
						slog.Any("keys", written), slog.String("error", cleanupErr.Error()))
				}
				return err
			}
			written = append(written, obj.key)
		}
	}
	return nil
}

// Remove deletes every stored variant of the given images.
func (s *ImageService) Remove(ctx context.Context, images []ProcessedImage) error {
	keys := make([]string, 0, len(images)*2)
	for _, img := range images {
		keys = append(keys, MasterKey(img.URLPath), ThumbnailKey(img.URLPath))
	}
	return s.store.Delete(ctx, keys...)
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func extensionMatchesFormat(ext, format string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	switch format {
	case "jpeg":
		return ext == "jpg" || ext == "jpeg"
	case "png", "gif", "webp":
		return ext == format
	default:
		return false
	}
}
