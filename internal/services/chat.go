package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Lllllllleong/pdfstudyflow/internal/ai"
	"github.com/Lllllllleong/pdfstudyflow/internal/models"
	"github.com/Lllllllleong/pdfstudyflow/internal/store"
)

// chatMatchCount is how many nearest chunks feed the chat context.
const chatMatchCount = 6

var pageMentionRe = regexp.MustCompile(`(?i)page\s+(\d+)`)

// ChatService answers questions about a document from its stored chunks,
// returning the answer together with the cited page numbers.
type ChatService struct {
	store     DocumentStore
	embedder  ai.Embedder
	generator ai.Generator
}

// NewChat wires the chat responder.
func NewChat(st DocumentStore, embedder ai.Embedder, generator ai.Generator) *ChatService {
	return &ChatService{store: st, embedder: embedder, generator: generator}
}

// Process embeds the question, gathers context (an explicitly mentioned
// page's full text plus the nearest chunks) and prompts the generator.
// Citations are the explicit page joined with the matched chunk pages,
// deduplicated and ascending.
func (s *ChatService) Process(ctx context.Context, userID string, req *models.ChatRequest) (*models.ChatResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("ask a question about the document")
	}
	if _, err := requireOwned(ctx, s.store, req.DocumentID, userID); err != nil {
		return nil, err
	}

	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	requestedPage := 0
	if m := pageMentionRe.FindStringSubmatch(question); m != nil {
		requestedPage, _ = strconv.Atoi(m[1])
	}

	var contextParts []string
	if requestedPage > 0 {
		page, err := s.store.GetPage(ctx, req.DocumentID, requestedPage)
		switch {
		case err == nil && page.Text != "":
			contextParts = append(contextParts,
				fmt.Sprintf("Page %d (full text): %s", requestedPage, page.Text))
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}

	matches, err := s.store.SearchChunks(ctx, req.DocumentID, embedding, chatMatchCount)
	if err != nil {
		return nil, err
	}
	for _, match := range matches {
		contextParts = append(contextParts, fmt.Sprintf("Page %d: %s", match.PageNumber, match.Content))
	}

	answer, err := s.generator.Generate(ctx, chatPrompt(strings.Join(contextParts, "\n\n"), question))
	if err != nil {
		return nil, err
	}

	return &models.ChatResponse{
		Question:  question,
		Answer:    answer,
		Citations: citedPages(requestedPage, matches),
	}, nil
}

// citedPages returns the sorted, deduplicated union of the explicitly
// requested page and the matched chunk pages. Zero page numbers are dropped.
func citedPages(requestedPage int, matches []models.Chunk) []int {
	seen := make(map[int]bool)
	if requestedPage > 0 {
		seen[requestedPage] = true
	}
	for _, match := range matches {
		if match.PageNumber > 0 {
			seen[match.PageNumber] = true
		}
	}
	pages := make([]int, 0, len(seen))
	for page := range seen {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}
