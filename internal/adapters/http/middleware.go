package httpadapter

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type ctxKeyRequestID struct{}

// requestIDMiddleware tags every turn with a correlation id. A caller-supplied
// X-Request-Id wins so gateway traces line up with orchestrator logs.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID{}, id)))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

// accessLogMiddleware emits one structured record per request, leveled by the
// response class so 5xx turns surface in error streams.
func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		meta := &responseMeta{ResponseWriter: w, code: http.StatusOK}

		next.ServeHTTP(meta, r)

		attrs := []any{
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", meta.code,
			"elapsed_ms", float64(time.Since(started).Microseconds()) / 1000.0,
			"bytes_out", meta.bytes,
			"client_ip", remoteHost(r),
			"user_agent", r.UserAgent(),
		}
		logFor(meta.code)("http_request", attrs...)
	})
}

func logFor(status int) func(string, ...any) {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.Error
	case status >= http.StatusBadRequest:
		return slog.Warn
	default:
		return slog.Info
	}
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// responseMeta captures the status and payload size the handler produced.
type responseMeta struct {
	http.ResponseWriter
	code  int
	bytes int
}

func (m *responseMeta) WriteHeader(code int) {
	m.code = code
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeta) Write(b []byte) (int, error) {
	n, err := m.ResponseWriter.Write(b)
	m.bytes += n
	return n, err
}

func (m *responseMeta) Flush() {
	if f, ok := m.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (m *responseMeta) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := m.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}
