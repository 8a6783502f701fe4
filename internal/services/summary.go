package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/pdfstudyflow/internal/ai"
	"github.com/Lllllllleong/pdfstudyflow/internal/models"
	"github.com/Lllllllleong/pdfstudyflow/internal/store"
)

// summaryFallbackChars bounds how much raw page text stands in for a missing
// per-page summary when building the document-summary context.
const summaryFallbackChars = 1200

// SummaryService generates the full-document summary and persists it on the
// document.
type SummaryService struct {
	store     DocumentStore
	generator ai.Generator
}

// NewSummary wires the summary responder.
func NewSummary(st DocumentStore, generator ai.Generator) *SummaryService {
	return &SummaryService{store: st, generator: generator}
}

// Process builds the context from every page (its summary when present,
// otherwise a prefix of its raw text), prompts the generator and stores the
// result on the document.
func (s *SummaryService) Process(ctx context.Context, userID, docID string) (*models.StatusResponse, error) {
	if _, err := requireOwned(ctx, s.store, docID, userID); err != nil {
		return nil, err
	}

	pages, err := s.store.ListPages(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}

	contextParts := make([]string, 0, len(pages))
	for _, page := range pages {
		text := strings.TrimSpace(page.Summary)
		if text == "" {
			text = prefixRunes(page.Text, summaryFallbackChars)
		}
		contextParts = append(contextParts, fmt.Sprintf("Page %d: %s", page.PageNumber, text))
	}

	summary, err := s.generator.Generate(ctx, summaryPrompt(strings.Join(contextParts, "\n\n")))
	if err != nil {
		return nil, err
	}

	if trimmed := strings.TrimSpace(summary); trimmed != "" {
		if err := s.store.UpdateDocument(ctx, docID, store.StatusUpdate{Summary: &trimmed}); err != nil {
			return nil, err
		}
		slog.Info("Stored document summary.", "documentId", docID, "length", len(trimmed))
	}

	return &models.StatusResponse{Status: "Full document summary generated."}, nil
}

// prefixRunes returns at most n runes of s.
func prefixRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
