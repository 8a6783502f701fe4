package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/pdfstudyflow/internal/ai"
	"github.com/Lllllllleong/pdfstudyflow/internal/models"
)

// flashcardChunkLimit is how many chunks, in page order, feed the flashcard
// prompt.
const flashcardChunkLimit = 12

// FlashcardService generates a batch of flashcards for a document.
type FlashcardService struct {
	store     DocumentStore
	generator ai.Generator
}

// NewFlashcards wires the flashcard responder.
func NewFlashcards(st DocumentStore, generator ai.Generator) *FlashcardService {
	return &FlashcardService{store: st, generator: generator}
}

type flashcardItem struct {
	Front      string `json:"front"`
	Back       string `json:"back"`
	SourcePage int    `json:"source_page"`
}

// Process prompts for a JSON array of cards, drops malformed items and
// bulk-inserts the rest. Zero valid items is a failure.
func (s *FlashcardService) Process(ctx context.Context, userID, docID string) (*models.StatusResponse, error) {
	if _, err := requireOwned(ctx, s.store, docID, userID); err != nil {
		return nil, err
	}

	chunks, err := s.store.ListChunks(ctx, docID, flashcardChunkLimit)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks found")
	}

	response, err := s.generator.Generate(ctx, flashcardPrompt(chunkContext(chunks)))
	if err != nil {
		return nil, err
	}

	var cards []models.Flashcard
	for _, raw := range extractJSONArray(response) {
		var item flashcardItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if item.Front == "" || item.Back == "" {
			continue
		}
		cards = append(cards, models.Flashcard{
			DocumentID: docID,
			Front:      item.Front,
			Back:       item.Back,
			SourcePage: item.SourcePage,
		})
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("failed to generate flashcards")
	}

	if err := s.store.InsertFlashcards(ctx, cards); err != nil {
		return nil, err
	}
	slog.Info("Flashcards generated.", "documentId", docID, "count", len(cards))
	return &models.StatusResponse{Status: "Flashcards generated."}, nil
}

// chunkContext renders chunks as the "Page N: text" blocks the generation
// prompts expect.
func chunkContext(chunks []models.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("Page %d: %s", chunk.PageNumber, chunk.Content))
	}
	return strings.Join(parts, "\n\n")
}
