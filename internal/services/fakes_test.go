package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/Lllllllleong/pdfstudyflow/internal/models"
	"github.com/Lllllllleong/pdfstudyflow/internal/pdfextract"
	"github.com/Lllllllleong/pdfstudyflow/internal/store"
)

// fakeStore is an in-memory DocumentStore.
type fakeStore struct {
	docs   map[string]*models.Document
	pages  []models.Page
	chunks []models.Chunk
	cards  []models.Flashcard
	terms  []models.GlossaryTerm

	searchResults    []models.Chunk
	failInsertChunks error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]*models.Document)}
}

func (f *fakeStore) CreateDocument(_ context.Context, doc *models.Document) error {
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeStore) GetDocument(_ context.Context, docID string) (*models.Document, error) {
	doc, ok := f.docs[docID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeStore) FindDocumentByPath(_ context.Context, filePath string) (*models.Document, error) {
	for _, doc := range f.docs {
		if doc.FilePath == filePath {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListDocuments(_ context.Context, userID string) ([]models.Document, error) {
	var out []models.Document
	for _, doc := range f.docs {
		if doc.UserID == userID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateDocument(_ context.Context, docID string, upd store.StatusUpdate) error {
	doc, ok := f.docs[docID]
	if !ok {
		return store.ErrNotFound
	}
	if upd.Status != nil {
		doc.Status = *upd.Status
	}
	if upd.Stage != nil {
		doc.Stage = *upd.Stage
	}
	if upd.Error != nil {
		doc.Error = *upd.Error
	}
	if upd.PageCount != nil {
		doc.PageCount = *upd.PageCount
	}
	if upd.ProcessedAt != nil {
		doc.ProcessedAt = upd.ProcessedAt
	}
	if upd.Summary != nil {
		doc.Summary = *upd.Summary
	}
	return nil
}

func (f *fakeStore) ClaimForReprocess(_ context.Context, docID string) error {
	doc, ok := f.docs[docID]
	if !ok {
		return store.ErrNotFound
	}
	if doc.Status == models.StatusProcessing {
		return store.ErrAlreadyProcessing
	}
	doc.Status = models.StatusProcessing
	doc.Stage = models.StageReprocessing
	doc.Error = ""
	return nil
}

func (f *fakeStore) InsertPages(_ context.Context, pages []models.Page) error {
	f.pages = append(f.pages, pages...)
	return nil
}

func (f *fakeStore) InsertChunks(_ context.Context, chunks []models.Chunk) error {
	if f.failInsertChunks != nil {
		return f.failInsertChunks
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeStore) InsertFlashcards(_ context.Context, cards []models.Flashcard) error {
	f.cards = append(f.cards, cards...)
	return nil
}

func (f *fakeStore) InsertGlossaryTerms(_ context.Context, terms []models.GlossaryTerm) error {
	f.terms = append(f.terms, terms...)
	return nil
}

func (f *fakeStore) ListPages(_ context.Context, docID string) ([]models.Page, error) {
	var out []models.Page
	for _, page := range f.pages {
		if page.DocumentID == docID {
			out = append(out, page)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PageNumber < out[j].PageNumber })
	return out, nil
}

func (f *fakeStore) GetPage(_ context.Context, docID string, pageNumber int) (*models.Page, error) {
	for _, page := range f.pages {
		if page.DocumentID == docID && page.PageNumber == pageNumber {
			copied := page
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListChunks(_ context.Context, docID string, limit int) ([]models.Chunk, error) {
	var out []models.Chunk
	for _, chunk := range f.chunks {
		if chunk.DocumentID == docID {
			out = append(out, chunk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PageNumber < out[j].PageNumber })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) SearchChunks(_ context.Context, _ string, _ []float32, matchCount int) ([]models.Chunk, error) {
	out := f.searchResults
	if len(out) > matchCount {
		out = out[:matchCount]
	}
	return out, nil
}

func (f *fakeStore) ListFlashcards(_ context.Context, docID string) ([]models.Flashcard, error) {
	var out []models.Flashcard
	for _, card := range f.cards {
		if card.DocumentID == docID {
			out = append(out, card)
		}
	}
	return out, nil
}

func (f *fakeStore) ListGlossaryTerms(_ context.Context, docID string) ([]models.GlossaryTerm, error) {
	var out []models.GlossaryTerm
	for _, term := range f.terms {
		if term.DocumentID == docID {
			out = append(out, term)
		}
	}
	return out, nil
}

func (f *fakeStore) PurgeDocumentData(_ context.Context, docID string) error {
	keepPages := f.pages[:0]
	for _, page := range f.pages {
		if page.DocumentID != docID {
			keepPages = append(keepPages, page)
		}
	}
	f.pages = keepPages
	keepChunks := f.chunks[:0]
	for _, chunk := range f.chunks {
		if chunk.DocumentID != docID {
			keepChunks = append(keepChunks, chunk)
		}
	}
	f.chunks = keepChunks
	keepCards := f.cards[:0]
	for _, card := range f.cards {
		if card.DocumentID != docID {
			keepCards = append(keepCards, card)
		}
	}
	f.cards = keepCards
	keepTerms := f.terms[:0]
	for _, term := range f.terms {
		if term.DocumentID != docID {
			keepTerms = append(keepTerms, term)
		}
	}
	f.terms = keepTerms
	return nil
}

// fakeObjects is an in-memory ObjectStore.
type fakeObjects struct {
	blobs map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{blobs: make(map[string][]byte)}
}

func (f *fakeObjects) Upload(_ context.Context, objectName string, data []byte) error {
	f.blobs[objectName] = data
	return nil
}

func (f *fakeObjects) Download(_ context.Context, objectName string) ([]byte, error) {
	data, ok := f.blobs[objectName]
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectName)
	}
	return data, nil
}

func (f *fakeObjects) SignedURL(objectName string) (string, error) {
	return "https://signed.example/" + objectName, nil
}

// fakeExtractor hands back canned pages regardless of input.
type fakeExtractor struct {
	result pdfextract.Result
	err    error
}

func (f *fakeExtractor) Extract([]byte) (pdfextract.Result, error) {
	return f.result, f.err
}

// fakeEmbedder returns a constant full-size vector.
type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	vec := make([]float32, models.EmbeddingDim)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec, nil
}

// fakeGenerator returns a canned completion and records the prompt.
type fakeGenerator struct {
	response string
	err      error
	prompt   string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}
