package utils

import (
	"bytes"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// SupabaseStorage uploads objects into one Supabase Storage bucket.
type SupabaseStorage struct {
	baseURL string
	bucket  string
	client  *storage.Client
}

func NewSupabaseStorage(supabaseURL, supabaseKey, bucket string) *SupabaseStorage {
	baseURL := strings.TrimRight(supabaseURL, "/")
	return &SupabaseStorage{
		baseURL: baseURL,
		bucket:  bucket,
		client:  storage.NewClient(baseURL+"/storage/v1", supabaseKey, nil),
	}
}

// Upload stores data at objectPath and returns its public URL:
// <SUPABASE_URL>/storage/v1/object/public/<bucket>/<objectPath>
func (s *SupabaseStorage) Upload(objectPath string, data []byte, contentType string) (string, error) {
	upsert := false
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := s.client.UploadFile(s.bucket, objectPath, bytes.NewReader(data), options); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return s.PublicURL(objectPath), nil
}

func (s *SupabaseStorage) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, strings.TrimLeft(objectPath, "/"))
}
