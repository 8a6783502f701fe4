// Package server exposes the study-assistant services over HTTP. Every route
// requires a bearer token; the handlers stay thin and delegate to the
// services package.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lllllllleong/pdfstudyflow/internal/ai"
	"github.com/Lllllllleong/pdfstudyflow/internal/models"
	"github.com/Lllllllleong/pdfstudyflow/internal/services"
	"github.com/Lllllllleong/pdfstudyflow/internal/store"
)

// maxUploadBytes bounds the multipart form we are willing to read into
// memory. The extractor enforces its own PDF size limit on top.
const maxUploadBytes = 64 << 20

// Server routes authenticated HTTP requests to the services.
type Server struct {
	verifier   Verifier
	ingest     *services.IngestService
	documents  *services.DocumentService
	chat       *services.ChatService
	selection  *services.SelectionService
	summary    *services.SummaryService
	flashcards *services.FlashcardService
	glossary   *services.GlossaryService
}

// New wires the HTTP layer.
func New(
	verifier Verifier,
	ingest *services.IngestService,
	documents *services.DocumentService,
	chat *services.ChatService,
	selection *services.SelectionService,
	summary *services.SummaryService,
	flashcards *services.FlashcardService,
	glossary *services.GlossaryService,
) *Server {
	return &Server{
		verifier:   verifier,
		ingest:     ingest,
		documents:  documents,
		chat:       chat,
		selection:  selection,
		summary:    summary,
		flashcards: flashcards,
		glossary:   glossary,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/documents/upload", s.withUser(s.handleUpload))
	mux.HandleFunc("POST /api/documents/reprocess", s.withUser(s.handleReprocess))
	mux.HandleFunc("GET /api/documents", s.withUser(s.handleListDocuments))
	mux.HandleFunc("GET /api/documents/view", s.withUser(s.handleDocumentView))
	mux.HandleFunc("GET /api/documents/file-url", s.withUser(s.handleFileURL))
	mux.HandleFunc("POST /api/chat", s.withUser(s.handleChat))
	mux.HandleFunc("POST /api/selection", s.withUser(s.handleSelection))
	mux.HandleFunc("POST /api/summary", s.withUser(s.handleSummary))
	mux.HandleFunc("POST /api/flashcards", s.withUser(s.handleFlashcards))
	mux.HandleFunc("POST /api/glossary", s.withUser(s.handleGlossary))
	return mux
}

// withUser authenticates the request and passes the user ID through.
func (s *Server) withUser(next func(w http.ResponseWriter, r *http.Request, userID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			slog.Warn("Rejected request token", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r, userID)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, userID string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse multipart form")
		return
	}
	title := r.FormValue("title")
	if strings.TrimSpace(title) == "" {
		writeError(w, http.StatusBadRequest, "please provide a document title")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "please choose a PDF file to upload")
		return
	}
	defer file.Close()
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/pdf" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q", ct))
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	resp, err := s.ingest.Upload(r.Context(), &models.UploadRequest{
		UserID: userID,
		Title:  title,
		Data:   data,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request, userID string) {
	docID, ok := decodeDocumentID(w, r)
	if !ok {
		return
	}
	resp, err := s.ingest.Reprocess(r.Context(), userID, docID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request, userID string) {
	docs, err := s.documents.List(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleDocumentView(w http.ResponseWriter, r *http.Request, userID string) {
	docID := r.URL.Query().Get("documentId")
	if docID == "" {
		writeError(w, http.StatusBadRequest, "missing documentId")
		return
	}
	view, err := s.documents.View(r.Context(), userID, docID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleFileURL(w http.ResponseWriter, r *http.Request, userID string) {
	docID := r.URL.Query().Get("documentId")
	if docID == "" {
		writeError(w, http.StatusBadRequest, "missing documentId")
		return
	}
	url, err := s.documents.FileURL(r.Context(), userID, docID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, userID string) {
	var req models.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "missing documentId")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "ask a question about the document")
		return
	}
	resp, err := s.chat.Process(r.Context(), userID, &req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request, userID string) {
	var req models.SelectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "missing documentId")
		return
	}
	if strings.TrimSpace(req.Selection) == "" || req.PageNumber <= 0 {
		writeError(w, http.StatusBadRequest, "selection and page number are required")
		return
	}
	resp, err := s.selection.Process(r.Context(), userID, &req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, userID string) {
	docID, ok := decodeDocumentID(w, r)
	if !ok {
		return
	}
	resp, err := s.summary.Process(r.Context(), userID, docID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFlashcards(w http.ResponseWriter, r *http.Request, userID string) {
	docID, ok := decodeDocumentID(w, r)
	if !ok {
		return
	}
	resp, err := s.flashcards.Process(r.Context(), userID, docID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGlossary(w http.ResponseWriter, r *http.Request, userID string) {
	docID, ok := decodeDocumentID(w, r)
	if !ok {
		return
	}
	resp, err := s.glossary.Process(r.Context(), userID, docID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeServiceError maps service failures onto HTTP statuses. Generation
// errors keep their user-facing message (it carries the retry hint).
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var genErr *ai.GenerationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "document not found")
	case errors.Is(err, store.ErrAlreadyProcessing):
		writeError(w, http.StatusConflict, "document is already being processed")
	case errors.As(err, &genErr):
		writeError(w, http.StatusServiceUnavailable, genErr.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON body")
		return false
	}
	return true
}

// decodeDocumentID reads the {"documentId": ...} body shared by the
// single-argument actions.
func decodeDocumentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		DocumentID string `json:"documentId"`
	}
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "missing documentId")
		return "", false
	}
	return req.DocumentID, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
