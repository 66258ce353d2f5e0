package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// SupabaseStore keeps images in a Supabase Storage bucket.
type SupabaseStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewSupabaseStore returns a store writing to bucket with the service role key.
func NewSupabaseStore(supabaseURL, serviceRoleKey, bucket string) *SupabaseStore {
	baseURL := strings.TrimRight(supabaseURL, "/")
	return &SupabaseStore{
		client:  storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil),
		bucket:  bucket,
		baseURL: baseURL,
	}
}

func (s *SupabaseStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

func (s *SupabaseStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, keys); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}

func (s *SupabaseStore) URL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, strings.TrimLeft(key, "/"))
}
