package parentfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// GCSStore resolves parent documents from a GCS bucket, one JSON object per
// document at "parents/{docID}.json".
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a GCSStore bound to bucket.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("parentfetch.NewGCSStore: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

var _ Store = (*GCSStore)(nil)

// Get reads and returns the raw JSON bytes for docID's parent document
// object.
func (s *GCSStore) Get(ctx context.Context, docID string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(objectKey(docID)).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("parentfetch.GCSStore.Get: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("parentfetch.GCSStore.Get: read: %w", err)
	}
	return data, nil
}

// Close releases the underlying GCS client.
func (s *GCSStore) Close() {
	s.client.Close()
}

func objectKey(docID string) string {
	return fmt.Sprintf("parents/%s.json", docID)
}

// decodeParentDocument unmarshals a parent document stored as JSON.
func decodeParentDocument(data []byte) (model.ParentDocument, error) {
	var doc model.ParentDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.ParentDocument{}, fmt.Errorf("parentfetch.decodeParentDocument: %w", err)
	}
	return doc, nil
}
