// Package services holds the ingestion pipeline and the retrieval-augmented
// responders. Each service is a small struct over narrow store and AI
// contracts so the handlers stay thin and the logic stays testable.
package services

import (
	"context"

	"github.com/Lllllllleong/pdfstudyflow/internal/models"
	"github.com/Lllllllleong/pdfstudyflow/internal/pdfextract"
	"github.com/Lllllllleong/pdfstudyflow/internal/store"
)

// DocumentStore is the row-store contract the services consume.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, docID string) (*models.Document, error)
	FindDocumentByPath(ctx context.Context, filePath string) (*models.Document, error)
	ListDocuments(ctx context.Context, userID string) ([]models.Document, error)
	UpdateDocument(ctx context.Context, docID string, upd store.StatusUpdate) error
	ClaimForReprocess(ctx context.Context, docID string) error
	InsertPages(ctx context.Context, pages []models.Page) error
	InsertChunks(ctx context.Context, chunks []models.Chunk) error
	InsertFlashcards(ctx context.Context, cards []models.Flashcard) error
	InsertGlossaryTerms(ctx context.Context, terms []models.GlossaryTerm) error
	ListPages(ctx context.Context, docID string) ([]models.Page, error)
	GetPage(ctx context.Context, docID string, pageNumber int) (*models.Page, error)
	ListChunks(ctx context.Context, docID string, limit int) ([]models.Chunk, error)
	SearchChunks(ctx context.Context, docID string, embedding []float32, matchCount int) ([]models.Chunk, error)
	ListFlashcards(ctx context.Context, docID string) ([]models.Flashcard, error)
	ListGlossaryTerms(ctx context.Context, docID string) ([]models.GlossaryTerm, error)
	PurgeDocumentData(ctx context.Context, docID string) error
}

// ObjectStore is the byte-storage contract for the uploaded PDFs.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, data []byte) error
	Download(ctx context.Context, objectName string) ([]byte, error)
	SignedURL(objectName string) (string, error)
}

// Extractor converts raw PDF bytes into per-page plain text.
type Extractor interface {
	Extract(data []byte) (pdfextract.Result, error)
}

// requireOwned loads a document and hides it behind ErrNotFound when it
// belongs to someone else.
func requireOwned(ctx context.Context, st DocumentStore, docID, userID string) (*models.Document, error) {
	doc, err := st.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, store.ErrNotFound
	}
	return doc, nil
}
