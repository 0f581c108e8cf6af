package audit

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"medbee/pkg/requestcontext"
)

// maxCaptureBytes caps how much request body is held for the entry. The
// handler still receives the full body.
const maxCaptureBytes = 64 << 10

// Recorder wraps sensitive routes. The downstream handler writes into a
// buffer; once it returns, an entry is emitted if an identity was bound during
// the request, and the buffered response is then sent unchanged.
type Recorder struct {
	classifier Classifier
	emitter    Emitter
	logger     *slog.Logger
	now        func() time.Time
}

func NewRecorder(classifier Classifier, emitter Emitter, logger *slog.Logger) *Recorder {
	return &Recorder{classifier: classifier, emitter: emitter, logger: logger, now: time.Now}
}

// Middleware classifies the request path once and only wraps sensitive paths.
func (rec *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rec.classifier.IsSensitive(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		path := r.URL.Path
		var body []byte
		if r.Method != http.MethodGet && r.Body != nil && r.Body != http.NoBody {
			body = captureBody(r)
		}

		ctx := requestcontext.WithPrincipalSlot(r.Context())
		buffered := &bufferedResponse{ResponseWriter: w}
		next.ServeHTTP(buffered, r.WithContext(ctx))

		if principal, ok := requestcontext.PrincipalFrom(ctx); ok {
			entry := Entry{
				ActorID:        principal.UserID,
				Action:         r.Method,
				Endpoint:       path,
				Method:         r.Method,
				IPAddress:      clientAddress(r),
				UserAgent:      r.Header.Get("User-Agent"),
				ResponseStatus: buffered.statusCode(),
				RequestID:      requestcontext.RequestID(ctx),
				Timestamp:      rec.now(),
			}
			if r.Method != http.MethodGet {
				entry.RequestBody = RedactBody(body)
			}
			if err := rec.emitter.Emit(ctx, entry); err != nil {
				rec.logger.ErrorContext(ctx, "AuditPersistenceFailure",
					"error", err,
					"endpoint", path,
					"request_id", entry.RequestID,
				)
			}
		}

		buffered.flush()
	})
}

// captureBody reads up to maxCaptureBytes and restores r.Body so the handler
// sees the original stream.
func captureBody(r *http.Request) []byte {
	captured, err := io.ReadAll(io.LimitReader(r.Body, maxCaptureBytes))
	rest := r.Body
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(captured), rest), rest}
	if err != nil {
		return nil
	}
	return captured
}

func clientAddress(r *http.Request) string {
	if ip := requestcontext.ClientIP(r.Context()); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// bufferedResponse holds status and body until flush. Headers go straight to
// the underlying writer's map, which is not sent before WriteHeader.
type bufferedResponse struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) statusCode() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}

func (b *bufferedResponse) flush() {
	b.ResponseWriter.WriteHeader(b.statusCode())
	if b.body.Len() > 0 {
		_, _ = b.ResponseWriter.Write(b.body.Bytes())
	}
}
