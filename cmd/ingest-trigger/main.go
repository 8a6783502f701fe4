package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/pdfstudyflow/internal/ai"
	"github.com/Lllllllleong/pdfstudyflow/internal/gcp"
	"github.com/Lllllllleong/pdfstudyflow/internal/pdfextract"
	"github.com/Lllllllleong/pdfstudyflow/internal/services"
	"github.com/Lllllllleong/pdfstudyflow/internal/store"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// gcsEvent is the storage object-finalized payload we care about.
type gcsEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

var (
	ingestInstance *services.IngestService
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework routes the event here.
	functions.CloudEvent("IngestUploadedPDF", ingestUploadedPDF)
}

// main is required by the Go Functions Framework.
func main() {}

func newIngestService(ctx context.Context) (*services.IngestService, error) {
	projectID := gcp.GetEnv("GCP_PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID must be set")
	}
	bucket := gcp.GetEnv("PDF_BUCKET", "")
	if bucket == "" {
		return nil, fmt.Errorf("PDF_BUCKET must be set")
	}

	fsClient, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	_, embedder, err := ai.NewFromEnv(ctx)
	if err != nil {
		return nil, err
	}

	return services.NewIngest(
		store.New(fsClient),
		store.NewObjectStore(storageClient, bucket),
		pdfextract.Extractor{},
		embedder,
	), nil
}

// ingestUploadedPDF re-runs the pipeline for a PDF that landed in the bucket
// outside the upload endpoint, for example via gsutil or a retry.
func ingestUploadedPDF(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		ingestInstance, initErr = newIngestService(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var event gcsEvent
	if err := json.Unmarshal(e.Data(), &event); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	slog.Info("Storage event received.", "bucket", event.Bucket, "object", event.Name)
	return ingestInstance.ReprocessObject(ctx, event.Name)
}
