package pdfextract

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbee/internal/platform/logger"
	"medbee/pkg/testutil"
)

type stubExtractor struct {
	text string
	err  error
	got  []byte
}

func (s *stubExtractor) Extract(_ context.Context, data []byte) (string, error) {
	s.got = data
	return s.text, s.err
}

func upload(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/extract-text", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newRouter(extractor Extractor, limit int64) http.Handler {
	r := chi.NewRouter()
	NewHandler(extractor, limit, logger.Discard()).Register(r)
	return r
}

func TestExtractText(t *testing.T) {
	t.Run("returns text and filename", func(t *testing.T) {
		stub := &stubExtractor{text: "Blood pressure 120/80"}
		res := testutil.DoRequest(newRouter(stub, 1<<20), upload(t, FormField, "labs.pdf", []byte("%PDF-1.4 doc")))

		require.Equal(t, http.StatusOK, res.Code)
		body := testutil.UnmarshalResponse[Result](t, res)
		assert.Equal(t, "Blood pressure 120/80", body.Text)
		assert.Equal(t, "labs.pdf", body.Filename)
		assert.Equal(t, []byte("%PDF-1.4 doc"), stub.got)
	})

	t.Run("missing file is a bad request", func(t *testing.T) {
		res := testutil.DoRequest(newRouter(&stubExtractor{}, 1<<20), upload(t, "document", "labs.pdf", []byte("x")))

		require.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, MsgNoFile, testutil.UnmarshalResponse[errorResponse](t, res).Error)
	})

	t.Run("non multipart body is a bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/extract-text", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")
		res := testutil.DoRequest(newRouter(&stubExtractor{}, 1<<20), req)

		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("extraction failure is a server error", func(t *testing.T) {
		stub := &stubExtractor{err: errors.New("corrupt xref")}
		res := testutil.DoRequest(newRouter(stub, 1<<20), upload(t, FormField, "labs.pdf", []byte("junk")))

		require.Equal(t, http.StatusInternalServerError, res.Code)
		assert.Equal(t, MsgExtractFailed, testutil.UnmarshalResponse[errorResponse](t, res).Error)
	})

	t.Run("oversized upload is rejected", func(t *testing.T) {
		res := testutil.DoRequest(newRouter(&stubExtractor{}, 64), upload(t, FormField, "big.pdf", bytes.Repeat([]byte("a"), 4096)))

		assert.Equal(t, http.StatusRequestEntityTooLarge, res.Code)
	})
}

func TestTextExtractorRejectsNonPDF(t *testing.T) {
	_, err := TextExtractor{}.Extract(context.Background(), []byte("plain text, not a document"))
	assert.Error(t, err)
}
