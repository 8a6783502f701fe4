package services

import (
	"context"

	"github.com/Lllllllleong/pdfstudyflow/internal/models"
)

// DocumentService serves the read side: document lists, the reader view and
// signed URLs for the stored PDFs.
type DocumentService struct {
	store   DocumentStore
	objects ObjectStore
}

// NewDocuments wires the read service.
func NewDocuments(st DocumentStore, objects ObjectStore) *DocumentService {
	return &DocumentService{store: st, objects: objects}
}

// List returns the caller's documents, newest first.
func (s *DocumentService) List(ctx context.Context, userID string) ([]models.Document, error) {
	return s.store.ListDocuments(ctx, userID)
}

// View loads a document together with its pages, flashcards and glossary
// terms for the reader page.
func (s *DocumentService) View(ctx context.Context, userID, docID string) (*models.DocumentView, error) {
	doc, err := requireOwned(ctx, s.store, docID, userID)
	if err != nil {
		return nil, err
	}
	pages, err := s.store.ListPages(ctx, docID)
	if err != nil {
		return nil, err
	}
	cards, err := s.store.ListFlashcards(ctx, docID)
	if err != nil {
		return nil, err
	}
	glossary, err := s.store.ListGlossaryTerms(ctx, docID)
	if err != nil {
		return nil, err
	}
	return &models.DocumentView{
		Document: *doc,
		Pages:    pages,
		Cards:    cards,
		Glossary: glossary,
	}, nil
}

// FileURL returns a short-lived read URL for the document's PDF bytes.
func (s *DocumentService) FileURL(ctx context.Context, userID, docID string) (string, error) {
	doc, err := requireOwned(ctx, s.store, docID, userID)
	if err != nil {
		return "", err
	}
	return s.objects.SignedURL(doc.FilePath)
}
