package services

import (
	"context"
	"strings"
	"testing"

	"github.com/Lllllllleong/pdfstudyflow/internal/models"
)

func TestSelectionExplainsWithPageContext(t *testing.T) {
	st := newFakeStore()
	st.docs["doc-1"] = &models.Document{ID: "doc-1", UserID: "user-1", Status: models.StatusReady}
	st.pages = append(st.pages, models.Page{DocumentID: "doc-1", PageNumber: 3, Text: "the page discusses deadlock"})
	gen := &fakeGenerator{response: " A deadlock is a circular wait. "}
	svc := NewSelection(st, gen)

	resp, err := svc.Process(context.Background(), "user-1", &models.SelectionRequest{
		DocumentID: "doc-1",
		PageNumber: 3,
		Selection:  "circular wait",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "A deadlock is a circular wait." {
		t.Errorf("answer = %q, want trimmed", resp.Answer)
	}
	if !strings.Contains(gen.prompt, "the page discusses deadlock") {
		t.Errorf("prompt missing page context:\n%s", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "circular wait") {
		t.Errorf("prompt missing selection:\n%s", gen.prompt)
	}
}

func TestSelectionToleratesMissingPage(t *testing.T) {
	st := newFakeStore()
	st.docs["doc-1"] = &models.Document{ID: "doc-1", UserID: "user-1", Status: models.StatusReady}
	svc := NewSelection(st, &fakeGenerator{response: "answer"})

	if _, err := svc.Process(context.Background(), "user-1", &models.SelectionRequest{
		DocumentID: "doc-1", PageNumber: 99, Selection: "some text",
	}); err != nil {
		t.Errorf("missing page should not fail the request: %v", err)
	}
}

func TestSelectionValidation(t *testing.T) {
	st := newFakeStore()
	st.docs["doc-1"] = &models.Document{ID: "doc-1", UserID: "user-1"}
	svc := NewSelection(st, &fakeGenerator{response: "answer"})

	if _, err := svc.Process(context.Background(), "user-1", &models.SelectionRequest{
		DocumentID: "doc-1", PageNumber: 3, Selection: "  ",
	}); err == nil {
		t.Error("blank selection accepted")
	}
	if _, err := svc.Process(context.Background(), "user-1", &models.SelectionRequest{
		DocumentID: "doc-1", Selection: "text",
	}); err == nil {
		t.Error("missing page number accepted")
	}
}
