package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/pdfstudyflow/internal/ai"
	"github.com/Lllllllleong/pdfstudyflow/internal/chunker"
	"github.com/Lllllllleong/pdfstudyflow/internal/models"
	"github.com/Lllllllleong/pdfstudyflow/internal/store"
	"github.com/google/uuid"
)

// IngestService runs the ingestion pipeline: persist bytes, extract pages,
// chunk, embed, store. A document moves through
// uploaded -> extracting -> saving-pages -> embedding -> (ready | error),
// with the stage recorded on the document for observability.
//
// A failed run leaves any rows it already inserted in place; the document's
// error status marks them as suspect, and the next reprocess purges them.
type IngestService struct {
	store     DocumentStore
	objects   ObjectStore
	extractor Extractor
	embedder  ai.Embedder
}

// NewIngest wires the pipeline dependencies.
func NewIngest(st DocumentStore, objects ObjectStore, extractor Extractor, embedder ai.Embedder) *IngestService {
	return &IngestService{store: st, objects: objects, extractor: extractor, embedder: embedder}
}

// Upload stores the uploaded bytes, creates the master document and runs the
// pipeline to completion.
func (s *IngestService) Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("please provide a document title")
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("please choose a PDF file to upload")
	}

	docID := uuid.NewString()
	filePath := fmt.Sprintf("%s/%s.pdf", req.UserID, docID)
	logCtx := slog.With("documentId", docID, "userId", req.UserID)

	if err := s.objects.Upload(ctx, filePath, req.Data); err != nil {
		logCtx.Error("Failed to upload PDF bytes", "error", err)
		return nil, err
	}

	doc := &models.Document{
		ID:        docID,
		UserID:    req.UserID,
		Title:     title,
		FilePath:  filePath,
		PageCount: 0,
		Status:    models.StatusProcessing,
		Stage:     models.StageUploaded,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		logCtx.Error("Failed to create master document", "error", err)
		return nil, err
	}
	logCtx.Info("Created master document.")

	if err := s.run(ctx, logCtx, docID, req.Data); err != nil {
		return nil, err
	}
	return &models.UploadResponse{DocumentID: docID}, nil
}

// Reprocess re-runs the pipeline for an existing document owned by userID,
// using the bytes already in object storage.
func (s *IngestService) Reprocess(ctx context.Context, userID, docID string) (*models.UploadResponse, error) {
	doc, err := requireOwned(ctx, s.store, docID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.reprocess(ctx, doc); err != nil {
		return nil, err
	}
	return &models.UploadResponse{DocumentID: docID}, nil
}

// ReprocessObject re-runs the pipeline for the document whose stored bytes
// live at objectName. Used by the storage-event trigger, so there is no
// acting user; unknown objects are ignored.
func (s *IngestService) ReprocessObject(ctx context.Context, objectName string) error {
	doc, err := s.store.FindDocumentByPath(ctx, objectName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Info("No document for uploaded object, ignoring.", "gcsObject", objectName)
			return nil
		}
		return err
	}
	return s.reprocess(ctx, doc)
}

func (s *IngestService) reprocess(ctx context.Context, doc *models.Document) error {
	logCtx := slog.With("documentId", doc.ID)

	// Transactional claim: a second reprocess while one is running is
	// rejected instead of racing it.
	if err := s.store.ClaimForReprocess(ctx, doc.ID); err != nil {
		logCtx.Warn("Could not claim document for reprocessing", "error", err)
		return err
	}

	data, err := s.objects.Download(ctx, doc.FilePath)
	if err != nil {
		return s.fail(ctx, logCtx, doc.ID, "failed to download stored PDF", err)
	}

	if err := s.store.PurgeDocumentData(ctx, doc.ID); err != nil {
		return s.fail(ctx, logCtx, doc.ID, "failed to purge previous rows", err)
	}

	return s.run(ctx, logCtx, doc.ID, data)
}

// run executes stages 2-5 of the pipeline against an existing document row.
func (s *IngestService) run(ctx context.Context, logCtx *slog.Logger, docID string, data []byte) error {
	if err := s.setStage(ctx, docID, models.StageExtracting); err != nil {
		return s.fail(ctx, logCtx, docID, "failed to update stage", err)
	}
	extracted, err := s.extractor.Extract(data)
	if err != nil {
		return s.fail(ctx, logCtx, docID, "failed to extract text", err)
	}
	logCtx.Info("Extraction complete.", "pageCount", extracted.PageCount)

	if err := s.setStage(ctx, docID, models.StageSavingPages); err != nil {
		return s.fail(ctx, logCtx, docID, "failed to update stage", err)
	}
	pages := make([]models.Page, 0, len(extracted.Pages))
	for i, text := range extracted.Pages {
		pages = append(pages, models.Page{
			DocumentID: docID,
			PageNumber: i + 1,
			Text:       text,
		})
	}
	if len(pages) > 0 {
		if err := s.store.InsertPages(ctx, pages); err != nil {
			return s.fail(ctx, logCtx, docID, "failed to save pages", err)
		}
	}

	stage := models.StageEmbedding
	if err := s.store.UpdateDocument(ctx, docID, store.StatusUpdate{
		Stage:     &stage,
		PageCount: &extracted.PageCount,
	}); err != nil {
		return s.fail(ctx, logCtx, docID, "failed to update stage", err)
	}

	// Chunks are embedded one at a time, in page order; the first failure
	// aborts the run.
	var chunks []models.Chunk
	for i, pageText := range extracted.Pages {
		for _, window := range chunker.SplitDefault(pageText) {
			vec, err := s.embedder.Embed(ctx, window)
			if err != nil {
				return s.fail(ctx, logCtx, docID, "failed to embed chunk", err)
			}
			chunks = append(chunks, models.Chunk{
				DocumentID: docID,
				PageNumber: i + 1,
				Content:    window,
				Embedding:  firestore.Vector32(vec),
			})
		}
	}
	if len(chunks) > 0 {
		if err := s.store.InsertChunks(ctx, chunks); err != nil {
			return s.fail(ctx, logCtx, docID, "failed to save chunks", err)
		}
	}

	ready := models.StatusReady
	stageNone := models.StageNone
	noError := ""
	now := time.Now()
	if err := s.store.UpdateDocument(ctx, docID, store.StatusUpdate{
		Status:      &ready,
		Stage:       &stageNone,
		Error:       &noError,
		ProcessedAt: &now,
	}); err != nil {
		return s.fail(ctx, logCtx, docID, "failed to mark document ready", err)
	}

	logCtx.Info("Ingestion complete.", "pageCount", extracted.PageCount, "chunkCount", len(chunks))
	return nil
}

func (s *IngestService) setStage(ctx context.Context, docID string, stage models.Stage) error {
	return s.store.UpdateDocument(ctx, docID, store.StatusUpdate{Stage: &stage})
}

// fail records the terminal error on the document and returns a user-facing
// error with the same message.
func (s *IngestService) fail(ctx context.Context, logCtx *slog.Logger, docID, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)

	failed := models.StatusError
	stageNone := models.StageNone
	if err := s.store.UpdateDocument(ctx, docID, store.StatusUpdate{
		Status: &failed,
		Stage:  &stageNone,
		Error:  &fullError,
	}); err != nil {
		logCtx.Error("CRITICAL: Failed to record error status on document.", "updateError", err)
	}
	return fmt.Errorf("%s", fullError)
}
