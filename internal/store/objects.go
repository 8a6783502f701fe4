package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ObjectStore keeps the raw PDF bytes in one Cloud Storage bucket.
type ObjectStore struct {
	client *storage.Client
	bucket string
}

// NewObjectStore wraps an existing Storage client and bucket name.
func NewObjectStore(client *storage.Client, bucket string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket}
}

// Bucket returns the configured bucket name.
func (o *ObjectStore) Bucket() string { return o.bucket }

// Upload writes data to objectName only if it doesn't already exist.
func (o *ObjectStore) Upload(ctx context.Context, objectName string, data []byte) error {
	writer := o.client.Bucket(o.bucket).Object(objectName).
		If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = "application/pdf"

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			slog.Warn("Object already exists, skipping upload.", "gcsObject", objectName)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// Download reads back the stored bytes of objectName.
func (o *ObjectStore) Download(ctx context.Context, objectName string) ([]byte, error) {
	reader, err := o.client.Bucket(o.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", o.bucket, objectName, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", o.bucket, objectName, err)
	}
	return data, nil
}

// SignedURL returns a short-lived V4 read URL for the object, for the PDF
// viewer.
func (o *ObjectStore) SignedURL(objectName string) (string, error) {
	url, err := o.client.Bucket(o.bucket).SignedURL(objectName, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(15 * time.Minute),
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign URL for %s: %w", objectName, err)
	}
	return url, nil
}
