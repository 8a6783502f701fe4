package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lllllllleong/pdfstudyflow/internal/ai"
	"github.com/Lllllllleong/pdfstudyflow/internal/models"
	"github.com/Lllllllleong/pdfstudyflow/internal/store"
)

// SelectionService explains a highlighted text span using the full text of
// the page it came from. The answer is returned, never persisted.
type SelectionService struct {
	store     DocumentStore
	generator ai.Generator
}

// NewSelection wires the selection-explain responder.
func NewSelection(st DocumentStore, generator ai.Generator) *SelectionService {
	return &SelectionService{store: st, generator: generator}
}

// Process prompts the generator with the selection and its page context.
func (s *SelectionService) Process(ctx context.Context, userID string, req *models.SelectionRequest) (*models.SelectionResponse, error) {
	selection := strings.TrimSpace(req.Selection)
	if selection == "" {
		return nil, fmt.Errorf("no selection provided")
	}
	if req.PageNumber <= 0 {
		return nil, fmt.Errorf("missing page number")
	}
	if _, err := requireOwned(ctx, s.store, req.DocumentID, userID); err != nil {
		return nil, err
	}

	pageContext := ""
	page, err := s.store.GetPage(ctx, req.DocumentID, req.PageNumber)
	switch {
	case err == nil:
		pageContext = page.Text
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	answer, err := s.generator.Generate(ctx, selectionPrompt(selection, pageContext))
	if err != nil {
		return nil, err
	}
	return &models.SelectionResponse{Answer: strings.TrimSpace(answer)}, nil
}
