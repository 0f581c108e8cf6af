package pdfextract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medbee/pkg/platform/httputil"
)

const (
	// FormField is the multipart field carrying the document.
	FormField = "pdf"

	MsgNoFile        = "No file uploaded."
	MsgExtractFailed = "Failed to extract text from PDF."
)

type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

type Handler struct {
	extractor Extractor
	maxUpload int64
	logger    *slog.Logger
}

type Result struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler serves uploads of at most maxUpload bytes.
func NewHandler(extractor Extractor, maxUpload int64, logger *slog.Logger) *Handler {
	return &Handler{extractor: extractor, maxUpload: maxUpload, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/extract-text", h.handleExtract)
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.ContentLength > h.maxUpload {
		h.tooLarge(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile(FormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.tooLarge(w, r)
			return
		}
		httputil.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: MsgNoFile})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, r, header.Filename, err)
		return
	}
	text, err := h.extractor.Extract(ctx, data)
	if err != nil {
		h.fail(w, r, header.Filename, err)
		return
	}

	h.logger.InfoContext(ctx, "pdf text extracted",
		"filename", header.Filename,
		"bytes", len(data),
		"chars", len(text),
	)
	httputil.WriteJSON(w, http.StatusOK, Result{Text: text, Filename: header.Filename})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, filename string, err error) {
	h.logger.ErrorContext(r.Context(), "pdf extraction failed", "filename", filename, "error", err)
	httputil.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: MsgExtractFailed})
}

func (h *Handler) tooLarge(w http.ResponseWriter, r *http.Request) {
	h.logger.WarnContext(r.Context(), "pdf upload too large", "limit", h.maxUpload)
	httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: MsgExtractFailed})
}
