package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/pdfstudyflow/internal/ai"
	"github.com/Lllllllleong/pdfstudyflow/internal/models"
)

// glossaryChunkLimit is how many chunks, in page order, feed the glossary
// prompt.
const glossaryChunkLimit = 16

// GlossaryService generates a glossary for a document.
type GlossaryService struct {
	store     DocumentStore
	generator ai.Generator
}

// NewGlossary wires the glossary responder.
func NewGlossary(st DocumentStore, generator ai.Generator) *GlossaryService {
	return &GlossaryService{store: st, generator: generator}
}

type glossaryItem struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	SourcePage int    `json:"source_page"`
}

// Process prompts for a JSON array of terms, drops malformed items and
// bulk-inserts the rest. Zero valid items is a failure.
func (s *GlossaryService) Process(ctx context.Context, userID, docID string) (*models.StatusResponse, error) {
	if _, err := requireOwned(ctx, s.store, docID, userID); err != nil {
		return nil, err
	}

	chunks, err := s.store.ListChunks(ctx, docID, glossaryChunkLimit)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks found")
	}

	response, err := s.generator.Generate(ctx, glossaryPrompt(chunkContext(chunks)))
	if err != nil {
		return nil, err
	}

	var terms []models.GlossaryTerm
	for _, raw := range extractJSONArray(response) {
		var item glossaryItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if item.Term == "" || item.Definition == "" {
			continue
		}
		terms = append(terms, models.GlossaryTerm{
			DocumentID: docID,
			Term:       item.Term,
			Definition: item.Definition,
			SourcePage: item.SourcePage,
		})
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("failed to generate glossary")
	}

	if err := s.store.InsertGlossaryTerms(ctx, terms); err != nil {
		return nil, err
	}
	slog.Info("Glossary generated.", "documentId", docID, "count", len(terms))
	return &models.StatusResponse{Status: "Glossary generated."}, nil
}
