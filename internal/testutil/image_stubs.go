// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
)

// ErrStoreUnavailable is returned by a MemoryImageStore configured to fail.
var ErrStoreUnavailable = errors.New("image store unavailable")

// MemoryImageStore is an in-memory ImageStore implementation for tests.
type MemoryImageStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	// FailPut makes every Put fail with ErrStoreUnavailable.
	FailPut bool
}

// NewMemoryImageStore creates an empty in-memory image store.
func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

// Put stores data under key.
func (s *MemoryImageStore) Put(_ context.Context, key, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut {
		return ErrStoreUnavailable
	}
	s.objects[key] = append([]byte(nil), data...)
	s.types[key] = contentType
	return nil
}

// Delete removes the given keys.
func (s *MemoryImageStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.objects, k)
		delete(s.types, k)
	}
	return nil
}

// URL returns a fake public URL for key.
func (s *MemoryImageStore) URL(key string) string {
	return "/media/" + key
}

// Keys returns the stored keys in sorted order.
func (s *MemoryImageStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ContentType returns the content type recorded for key.
func (s *MemoryImageStore) ContentType(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.types[key]
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// TinyPNGBase64 returns TinyPNG encoded as standard base64.
func TinyPNGBase64(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString(TinyPNG(t, w, h))
}
