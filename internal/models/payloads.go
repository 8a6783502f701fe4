package models

// These structs define the JSON payloads exchanged between the form-action
// HTTP endpoints and their services.

// UploadRequest is the input for the upload action.
type UploadRequest struct {
	UserID string
	Title  string
	Data   []byte
}

// UploadResponse is the output of the upload and reprocess actions.
type UploadResponse struct {
	DocumentID string `json:"documentId"`
}

// ChatRequest is the input for the chat action.
type ChatRequest struct {
	DocumentID string `json:"documentId"`
	Question   string `json:"question"`
}

// ChatResponse is the output of the chat action.
type ChatResponse struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Citations []int  `json:"citations"`
}

// SelectionRequest is the input for the selection-explain action.
type SelectionRequest struct {
	DocumentID string `json:"documentId"`
	PageNumber int    `json:"pageNumber"`
	Selection  string `json:"selection"`
}

// SelectionResponse is the output of the selection-explain action.
type SelectionResponse struct {
	Answer string `json:"answer"`
}

// StatusResponse is the output of the summary, flashcard and glossary actions.
type StatusResponse struct {
	Status string `json:"status"`
}

// DocumentView bundles a document with its derived rows for the reader page.
type DocumentView struct {
	Document Document       `json:"document"`
	Pages    []Page         `json:"pages"`
	Cards    []Flashcard    `json:"flashcards"`
	Glossary []GlossaryTerm `json:"glossary"`
}
