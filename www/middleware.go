package www

import (
	"bytes"
	"compress/gzip"
	"log/slog"
	"net/http"
	"strings"

	"github.com/angas/strompris-go/logging"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-Id"

func logRequestMW(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, reqID)
		r = r.WithContext(logging.WithRequestID(r.Context(), reqID))
		logger.DebugContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
			slog.String("remoteAddr", r.RemoteAddr))
		next.ServeHTTP(w, r)
	})
}

var excludedContentTypes = []string{
	"image/",
	"video/",
	"audio/",
}

type compressionConfig struct {
	MinLength int // Minimum body length to compress
	Level     int // Gzip level 1-9
}

func defaultCompressionConfig() compressionConfig {
	return compressionConfig{
		MinLength: 1024,
		Level:     gzip.DefaultCompression,
	}
}

func shouldCompress(contentType string) bool {
	for _, excluded := range excludedContentTypes {
		if strings.HasPrefix(contentType, excluded) {
			return false
		}
	}
	return true
}

// compressionMW gzips buffered responses for clients that accept it.
func compressionMW(logger *slog.Logger, cfg compressionConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Accept-Encoding")
		gw := &gzipResponseWriter{ResponseWriter: w, cfg: cfg}
		next.ServeHTTP(gw, r)
		if err := gw.finishWriting(); err != nil {
			logger.DebugContext(r.Context(), "writing compressed response failed", slog.Any("error", err))
		}
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	cfg    compressionConfig
	status int
	buf    bytes.Buffer
}

func (g *gzipResponseWriter) WriteHeader(status int) {
	if g.status == 0 {
		g.status = status
	}
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	return g.buf.Write(data)
}

func (g *gzipResponseWriter) finishWriting() error {
	status := g.status
	if status == 0 {
		status = http.StatusOK
	}
	content := g.buf.Bytes()

	contentType := g.Header().Get("Content-Type")
	if contentType == "" && len(content) > 0 {
		contentType = http.DetectContentType(content)
		g.Header().Set("Content-Type", contentType)
	}

	if !shouldCompress(contentType) || len(content) < g.cfg.MinLength || status == http.StatusNoContent || status == http.StatusNotModified {
		g.ResponseWriter.WriteHeader(status)
		_, err := g.ResponseWriter.Write(content)
		return err
	}

	g.Header().Set("Content-Encoding", "gzip")
	g.Header().Del("Content-Length")
	g.ResponseWriter.WriteHeader(status)

	gz, err := gzip.NewWriterLevel(g.ResponseWriter, g.cfg.Level)
	if err != nil {
		return err
	}
	if _, err := gz.Write(content); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
