package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/Lllllllleong/pdfstudyflow/internal/ai"
	"github.com/Lllllllleong/pdfstudyflow/internal/gcp"
	"github.com/Lllllllleong/pdfstudyflow/internal/pdfextract"
	"github.com/Lllllllleong/pdfstudyflow/internal/server"
	"github.com/Lllllllleong/pdfstudyflow/internal/services"
	"github.com/Lllllllleong/pdfstudyflow/internal/store"
	"github.com/joho/godotenv"
)

// main wires the clients and services and serves the API with the functions
// framework, so the same binary runs locally and as a deployed function.
func main() {
	// Local development convenience; in deployment the variables are real.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	projectID := gcp.GetEnv("GCP_PROJECT_ID", "")
	if projectID == "" {
		slog.Error("GCP_PROJECT_ID must be set")
		os.Exit(1)
	}
	bucket := gcp.GetEnv("PDF_BUCKET", "")
	if bucket == "" {
		slog.Error("PDF_BUCKET must be set")
		os.Exit(1)
	}
	audience := gcp.GetEnv("AUTH_AUDIENCE", "")
	if audience == "" {
		slog.Error("AUTH_AUDIENCE must be set")
		os.Exit(1)
	}

	fsClient, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		slog.Error("Failed to create Firestore client", "error", err)
		os.Exit(1)
	}
	defer fsClient.Close()

	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		slog.Error("Failed to create Storage client", "error", err)
		os.Exit(1)
	}
	defer storageClient.Close()

	generator, embedder, err := ai.NewFromEnv(ctx)
	if err != nil {
		slog.Error("Failed to initialize AI backend", "error", err)
		os.Exit(1)
	}

	st := store.New(fsClient)
	objects := store.NewObjectStore(storageClient, bucket)

	srv := server.New(
		server.NewIDTokenVerifier(audience),
		services.NewIngest(st, objects, pdfextract.Extractor{}, embedder),
		services.NewDocuments(st, objects),
		services.NewChat(st, embedder, generator),
		services.NewSelection(st, generator),
		services.NewSummary(st, generator),
		services.NewFlashcards(st, generator),
		services.NewGlossary(st, generator),
	)

	handler := srv.Handler()
	if err := funcframework.RegisterHTTPFunctionContext(ctx, "/", handler.ServeHTTP); err != nil {
		slog.Error("Failed to register HTTP function", "error", err)
		os.Exit(1)
	}

	port := gcp.GetEnv("PORT", "8080")
	slog.Info("Serving study-assistant API.", "port", port)
	if err := funcframework.Start(port); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
