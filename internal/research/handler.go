package research

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ayush/research-content-generator/internal/export"
	"github.com/ayush/research-content-generator/internal/httpx"
	"github.com/ayush/research-content-generator/internal/middleware"
	"github.com/ayush/research-content-generator/internal/models"
	"github.com/ayush/research-content-generator/internal/store"
)

const exportBaseName = "research_content"

// DocumentStore reads and clears the state of a UI session.
type DocumentStore interface {
	Document(ctx context.Context, uiSessionID string) (*models.Document, error)
	ClearDocument(ctx context.Context, uiSessionID string) error
	Clear(ctx context.Context, uiSessionID string) error
}

// FileStore defines the interface for exported file storage.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// PDFRenderer converts Markdown into PDF bytes.
type PDFRenderer interface {
	Available() bool
	Convert(ctx context.Context, title, markdown string) ([]byte, error)
}

// HTMLRenderer converts Markdown into a standalone HTML page.
type HTMLRenderer interface {
	Render(title, markdown string) ([]byte, error)
}

// Handler holds research HTTP handlers.
type Handler struct {
	pipeline  *Pipeline
	docs      DocumentStore
	artifacts FileStore // nil disables the export cache
	pdf       PDFRenderer
	html      HTMLRenderer
	log       *zap.Logger
}

func NewHandler(pipeline *Pipeline, docs DocumentStore, artifacts FileStore, pdf PDFRenderer, html HTMLRenderer, logger *zap.Logger) *Handler {
	return &Handler{
		pipeline:  pipeline,
		docs:      docs,
		artifacts: artifacts,
		pdf:       pdf,
		html:      html,
		log:       logger.Named("research"),
	}
}

// Routes mounts the document endpoints under /api/research.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.Get)
	r.Delete("/", h.Delete)
	r.Get("/export/{format}", h.Export)
}

type optionsResponse struct {
	models.Options
	PDFAvailable bool `json:"pdf_available"`
}

// Options returns the closed option sets for the input form.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, optionsResponse{
		Options:      models.AllOptions(),
		PDFAvailable: h.pdf.Available(),
	})
}

// Create runs the pipeline for the submitted form.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())

	var req models.CreateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, MsgInvalidInput)
		return
	}

	previous, err := h.docs.Document(r.Context(), sid)
	if err != nil {
		h.log.Warn("load previous document", zap.String("ui_session", sid), zap.Error(err))
	}

	out, err := h.pipeline.Run(r.Context(), sid, req.Input(), req.Regenerate)
	if err != nil {
		httpx.WriteError(w, statusFor(err), UserMessage(err))
		return
	}

	if out.Cached {
		httpx.WriteJSON(w, http.StatusOK, out)
		return
	}
	if previous != nil && previous.ID != out.Document.ID {
		h.dropArtifacts(r.Context(), sid, previous.ID)
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrPreparationFailed), errors.Is(err, ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Get returns the cached document of the UI session. It never calls the model.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.current(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, doc)
}

// Delete clears the cached document and its exported files.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	doc, err := h.docs.Document(r.Context(), sid)
	if err != nil {
		h.log.Error("load document", zap.String("ui_session", sid), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load document")
		return
	}
	if doc != nil {
		h.dropArtifacts(r.Context(), sid, doc.ID)
	}
	if err := h.docs.ClearDocument(r.Context(), sid); err != nil {
		h.log.Error("clear document", zap.String("ui_session", sid), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// Reset drops everything the UI session holds: document, artifacts and chats.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	if doc, err := h.docs.Document(r.Context(), sid); err == nil && doc != nil {
		h.dropArtifacts(r.Context(), sid, doc.ID)
	}
	if err := h.docs.Clear(r.Context(), sid); err != nil {
		h.log.Error("clear session", zap.String("ui_session", sid), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "reset failed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "reset"})
}

// Export streams the cached document as md, pdf or html.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.current(w, r)
	if !ok {
		return
	}

	switch chi.URLParam(r, "format") {
	case "md":
		attach(w, "text/markdown; charset=utf-8", exportBaseName+".md", []byte(doc.Content))
	case "html":
		page, err := h.html.Render(doc.Title, doc.Content)
		if err != nil {
			h.log.Error("render html", zap.String("document_id", doc.ID), zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, "failed to render HTML")
			return
		}
		attach(w, "text/html; charset=utf-8", exportBaseName+".html", page)
	case "pdf":
		h.exportPDF(w, r, doc)
	default:
		httpx.WriteError(w, http.StatusNotFound, "unknown export format")
	}
}

func (h *Handler) exportPDF(w http.ResponseWriter, r *http.Request, doc *models.Document) {
	if !h.pdf.Available() {
		httpx.WriteError(w, http.StatusServiceUnavailable, "PDF export is not available on this server")
		return
	}

	sid := middleware.SessionID(r.Context())
	key := store.ArtifactKey(sid, doc.ID, "pdf")
	if h.artifacts != nil {
		data, _, err := h.artifacts.Download(r.Context(), key)
		switch {
		case err == nil:
			w.Header().Set("X-Export-Cache", "hit")
			attach(w, "application/pdf", exportBaseName+".pdf", data)
			return
		case !errors.Is(err, store.ErrNotFound):
			h.log.Warn("artifact download", zap.String("key", key), zap.Error(err))
		}
	}

	data, err := h.pdf.Convert(r.Context(), doc.Title, doc.Content)
	if err != nil {
		if errors.Is(err, export.ErrPDFUnavailable) {
			httpx.WriteError(w, http.StatusServiceUnavailable, "PDF export is not available on this server")
			return
		}
		h.log.Error("render pdf", zap.String("document_id", doc.ID), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "failed to render PDF")
		return
	}

	if h.artifacts != nil {
		if err := h.artifacts.Upload(r.Context(), key, data, "application/pdf"); err != nil {
			h.log.Warn("artifact upload", zap.String("key", key), zap.Error(err))
		}
	}
	w.Header().Set("X-Export-Cache", "miss")
	attach(w, "application/pdf", exportBaseName+".pdf", data)
}

// current loads the cached document, writing 404 when there is none.
func (h *Handler) current(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	sid := middleware.SessionID(r.Context())
	doc, err := h.docs.Document(r.Context(), sid)
	if err != nil {
		h.log.Error("load document", zap.String("ui_session", sid), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load document")
		return nil, false
	}
	if doc == nil {
		httpx.WriteError(w, http.StatusNotFound, "no document generated yet")
		return nil, false
	}
	return doc, true
}

func (h *Handler) dropArtifacts(ctx context.Context, sid, documentID string) {
	if h.artifacts == nil {
		return
	}
	key := store.ArtifactKey(sid, documentID, "pdf")
	if err := h.artifacts.Remove(ctx, key); err != nil {
		h.log.Warn("artifact remove", zap.String("key", key), zap.Error(err))
	}
}

func attach(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
