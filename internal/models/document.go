package models

import (
	"time"

	"cloud.google.com/go/firestore"
)

// EmbeddingDim is the dimensionality every stored embedding is normalized to,
// regardless of which AI backend produced it.
const EmbeddingDim = 1536

// Status is the processing state of a document. Its pages and chunks are only
// valid for querying while the status is StatusReady; StatusError means the
// derived rows may be partial or stale.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

// Stage is a human-readable progress marker recorded on a document while the
// ingestion pipeline runs. It is cleared once the pipeline reaches a terminal
// status.
type Stage string

const (
	StageNone         Stage = ""
	StageUploaded     Stage = "uploaded"
	StageReprocessing Stage = "reprocessing"
	StageExtracting   Stage = "extracting"
	StageSavingPages  Stage = "saving-pages"
	StageEmbedding    Stage = "embedding"
)

// Document is the master record for one uploaded PDF in Firestore.
type Document struct {
	ID          string     `firestore:"-" json:"id"`
	UserID      string     `firestore:"userId" json:"-"`
	Title       string     `firestore:"title" json:"title"`
	FilePath    string     `firestore:"filePath" json:"-"`
	PageCount   int        `firestore:"pageCount" json:"pageCount"`
	Status      Status     `firestore:"processingStatus" json:"processingStatus"`
	Stage       Stage      `firestore:"processingStage" json:"processingStage,omitempty"`
	Error       string     `firestore:"processingError" json:"processingError,omitempty"`
	Summary     string     `firestore:"summary,omitempty" json:"summary,omitempty"`
	CreatedAt   time.Time  `firestore:"createdAt" json:"createdAt"`
	ProcessedAt *time.Time `firestore:"processedAt,omitempty" json:"processedAt,omitempty"`
}

// Page is one extracted page of a document. Immutable after ingestion except
// for the optional generated summary.
type Page struct {
	DocumentID string `firestore:"documentId" json:"-"`
	PageNumber int    `firestore:"pageNumber" json:"pageNumber"`
	Text       string `firestore:"text" json:"text"`
	Summary    string `firestore:"summary,omitempty" json:"summary,omitempty"`
}

// Chunk is a bounded text window from one page, stored with its embedding for
// similarity search. Read-only after ingestion.
type Chunk struct {
	DocumentID string             `firestore:"documentId" json:"-"`
	PageNumber int                `firestore:"pageNumber" json:"pageNumber"`
	Content    string             `firestore:"content" json:"content"`
	Embedding  firestore.Vector32 `firestore:"embedding" json:"-"`
}

// Flashcard is one generated question/answer card for a document.
type Flashcard struct {
	DocumentID string `firestore:"documentId" json:"-"`
	Front      string `firestore:"front" json:"front"`
	Back       string `firestore:"back" json:"back"`
	SourcePage int    `firestore:"sourcePage,omitempty" json:"sourcePage,omitempty"`
}

// GlossaryTerm is one generated term/definition pair for a document.
type GlossaryTerm struct {
	DocumentID string `firestore:"documentId" json:"-"`
	Term       string `firestore:"term" json:"term"`
	Definition string `firestore:"definition" json:"definition"`
	SourcePage int    `firestore:"sourcePage,omitempty" json:"sourcePage,omitempty"`
}
