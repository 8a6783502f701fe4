// Package store persists documents, pages, chunks, flashcards and glossary
// terms in Firestore and the raw PDF bytes in Cloud Storage.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/pdfstudyflow/internal/models"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	documentsCollection  = "documents"
	pagesCollection      = "document_pages"
	chunksCollection     = "chunks"
	flashcardsCollection = "flashcards"
	glossaryCollection   = "glossary_terms"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyProcessing is returned when a reprocess claim races an
	// in-flight ingestion run for the same document.
	ErrAlreadyProcessing = errors.New("document is already processing")
)

// StatusUpdate is a partial update of a document's pipeline bookkeeping
// fields. Nil fields are left untouched.
type StatusUpdate struct {
	Status      *models.Status
	Stage       *models.Stage
	Error       *string
	PageCount   *int
	ProcessedAt *time.Time
	Summary     *string
}

// Store is the Firestore-backed row store.
type Store struct {
	client *firestore.Client
}

// New wraps an existing Firestore client.
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) docRef(docID string) *firestore.DocumentRef {
	return s.client.Collection(documentsCollection).Doc(docID)
}

// CreateDocument creates the master record under doc.ID.
func (s *Store) CreateDocument(ctx context.Context, doc *models.Document) error {
	if _, err := s.docRef(doc.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to create master document: %w", err)
	}
	return nil
}

// GetDocument loads one document by ID.
func (s *Store) GetDocument(ctx context.Context, docID string) (*models.Document, error) {
	snap, err := s.docRef(docID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document %s: %w", docID, err)
	}
	var doc models.Document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", docID, err)
	}
	doc.ID = snap.Ref.ID
	return &doc, nil
}

// FindDocumentByPath resolves a document from its storage path.
func (s *Store) FindDocumentByPath(ctx context.Context, filePath string) (*models.Document, error) {
	docs, err := s.client.Collection(documentsCollection).
		Where("filePath", "==", filePath).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query documents by path: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	var doc models.Document
	if err := docs[0].DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	doc.ID = docs[0].Ref.ID
	return &doc, nil
}

// ListDocuments returns all documents owned by userID, newest first.
func (s *Store) ListDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	it := s.client.Collection(documentsCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).Documents(ctx)
	var out []models.Document
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		var doc models.Document
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", snap.Ref.ID, err)
		}
		doc.ID = snap.Ref.ID
		out = append(out, doc)
	}
	return out, nil
}

// UpdateDocument applies a partial status update to the document.
func (s *Store) UpdateDocument(ctx context.Context, docID string, upd StatusUpdate) error {
	updates := buildUpdates(upd)
	if len(updates) == 0 {
		return nil
	}
	if _, err := s.docRef(docID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update document %s: %w", docID, err)
	}
	return nil
}

func buildUpdates(upd StatusUpdate) []firestore.Update {
	var updates []firestore.Update
	if upd.Status != nil {
		updates = append(updates, firestore.Update{Path: "processingStatus", Value: *upd.Status})
	}
	if upd.Stage != nil {
		updates = append(updates, firestore.Update{Path: "processingStage", Value: *upd.Stage})
	}
	if upd.Error != nil {
		updates = append(updates, firestore.Update{Path: "processingError", Value: *upd.Error})
	}
	if upd.PageCount != nil {
		updates = append(updates, firestore.Update{Path: "pageCount", Value: *upd.PageCount})
	}
	if upd.ProcessedAt != nil {
		updates = append(updates, firestore.Update{Path: "processedAt", Value: *upd.ProcessedAt})
	}
	if upd.Summary != nil {
		updates = append(updates, firestore.Update{Path: "summary", Value: *upd.Summary})
	}
	return updates
}

// ClaimForReprocess transactionally flips the document to processing/
// reprocessing. It fails with ErrAlreadyProcessing when another run holds the
// document, which is the guard against concurrent reprocess requests.
func (s *Store) ClaimForReprocess(ctx context.Context, docID string) error {
	ref := s.docRef(docID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		var doc models.Document
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		if doc.Status == models.StatusProcessing {
			return ErrAlreadyProcessing
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "processingStatus", Value: models.StatusProcessing},
			{Path: "processingStage", Value: models.StageReprocessing},
			{Path: "processingError", Value: ""},
		})
	})
}

func (s *Store) bulkCreate(ctx context.Context, collection string, rows []any) error {
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(rows))
	for _, row := range rows {
		job, err := bw.Create(s.client.Collection(collection).NewDoc(), row)
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue write to %s: %w", collection, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("bulk write to %s failed: %w", collection, err)
		}
	}
	return nil
}

// InsertPages bulk-inserts extracted pages.
func (s *Store) InsertPages(ctx context.Context, pages []models.Page) error {
	rows := make([]any, len(pages))
	for i := range pages {
		rows[i] = pages[i]
	}
	return s.bulkCreate(ctx, pagesCollection, rows)
}

// InsertChunks bulk-inserts embedded chunks.
func (s *Store) InsertChunks(ctx context.Context, chunks []models.Chunk) error {
	rows := make([]any, len(chunks))
	for i := range chunks {
		rows[i] = chunks[i]
	}
	return s.bulkCreate(ctx, chunksCollection, rows)
}

// InsertFlashcards bulk-inserts generated flashcards.
func (s *Store) InsertFlashcards(ctx context.Context, cards []models.Flashcard) error {
	rows := make([]any, len(cards))
	for i := range cards {
		rows[i] = cards[i]
	}
	return s.bulkCreate(ctx, flashcardsCollection, rows)
}

// InsertGlossaryTerms bulk-inserts generated glossary terms.
func (s *Store) InsertGlossaryTerms(ctx context.Context, terms []models.GlossaryTerm) error {
	rows := make([]any, len(terms))
	for i := range terms {
		rows[i] = terms[i]
	}
	return s.bulkCreate(ctx, glossaryCollection, rows)
}

// ListPages returns all pages of a document in page order.
func (s *Store) ListPages(ctx context.Context, docID string) ([]models.Page, error) {
	it := s.client.Collection(pagesCollection).
		Where("documentId", "==", docID).
		OrderBy("pageNumber", firestore.Asc).Documents(ctx)
	var out []models.Page
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list pages: %w", err)
		}
		var page models.Page
		if err := snap.DataTo(&page); err != nil {
			return nil, fmt.Errorf("failed to decode page: %w", err)
		}
		out = append(out, page)
	}
	return out, nil
}

// GetPage returns one page by number, or ErrNotFound.
func (s *Store) GetPage(ctx context.Context, docID string, pageNumber int) (*models.Page, error) {
	docs, err := s.client.Collection(pagesCollection).
		Where("documentId", "==", docID).
		Where("pageNumber", "==", pageNumber).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query page %d: %w", pageNumber, err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	var page models.Page
	if err := docs[0].DataTo(&page); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	return &page, nil
}

// ListChunks returns up to limit chunks of a document in page order.
func (s *Store) ListChunks(ctx context.Context, docID string, limit int) ([]models.Chunk, error) {
	it := s.client.Collection(chunksCollection).
		Where("documentId", "==", docID).
		OrderBy("pageNumber", firestore.Asc).
		Limit(limit).Documents(ctx)
	var out []models.Chunk
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list chunks: %w", err)
		}
		var chunk models.Chunk
		if err := snap.DataTo(&chunk); err != nil {
			return nil, fmt.Errorf("failed to decode chunk: %w", err)
		}
		out = append(out, chunk)
	}
	return out, nil
}

// SearchChunks runs the vector similarity search over a document's chunks and
// returns the matchCount nearest ones.
func (s *Store) SearchChunks(ctx context.Context, docID string, embedding []float32, matchCount int) ([]models.Chunk, error) {
	it := s.client.Collection(chunksCollection).
		Where("documentId", "==", docID).
		FindNearest("embedding", firestore.Vector32(embedding), matchCount,
			firestore.DistanceMeasureCosine, nil).
		Documents(ctx)
	var out []models.Chunk
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("similarity search failed: %w", err)
		}
		var chunk models.Chunk
		if err := snap.DataTo(&chunk); err != nil {
			return nil, fmt.Errorf("failed to decode chunk: %w", err)
		}
		out = append(out, chunk)
	}
	return out, nil
}

// ListFlashcards returns all flashcards of a document.
func (s *Store) ListFlashcards(ctx context.Context, docID string) ([]models.Flashcard, error) {
	it := s.client.Collection(flashcardsCollection).
		Where("documentId", "==", docID).Documents(ctx)
	var out []models.Flashcard
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list flashcards: %w", err)
		}
		var card models.Flashcard
		if err := snap.DataTo(&card); err != nil {
			return nil, fmt.Errorf("failed to decode flashcard: %w", err)
		}
		out = append(out, card)
	}
	return out, nil
}

// ListGlossaryTerms returns all glossary terms of a document.
func (s *Store) ListGlossaryTerms(ctx context.Context, docID string) ([]models.GlossaryTerm, error) {
	it := s.client.Collection(glossaryCollection).
		Where("documentId", "==", docID).Documents(ctx)
	var out []models.GlossaryTerm
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list glossary terms: %w", err)
		}
		var term models.GlossaryTerm
		if err := snap.DataTo(&term); err != nil {
			return nil, fmt.Errorf("failed to decode glossary term: %w", err)
		}
		out = append(out, term)
	}
	return out, nil
}

// PurgeDocumentData deletes all derived rows (pages, chunks, flashcards,
// glossary terms) of a document. The four collections are purged
// concurrently; the master document itself is untouched.
func (s *Store) PurgeDocumentData(ctx context.Context, docID string) error {
	eg, gctx := errgroup.WithContext(ctx)
	for _, collection := range []string{pagesCollection, chunksCollection, flashcardsCollection, glossaryCollection} {
		eg.Go(func() error {
			if err := s.deleteByDocument(gctx, collection, docID); err != nil {
				return fmt.Errorf("purge %s: %w", collection, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

func (s *Store) deleteByDocument(ctx context.Context, collection, docID string) error {
	it := s.client.Collection(collection).
		Where("documentId", "==", docID).Documents(ctx)
	bw := s.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return err
		}
		job, err := bw.Delete(snap.Ref)
		if err != nil {
			bw.End()
			return err
		}
		jobs = append(jobs, job)
	}
	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return err
		}
	}
	return nil
}
