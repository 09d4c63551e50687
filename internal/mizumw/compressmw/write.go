package compressmw

import (
	"compress/gzip"
	"net/http"
	"strings"
)

var _ http.Flusher = (*gzipWriter)(nil)

type gzipWriter struct {
	http.ResponseWriter

	config      *config
	wroteHeader bool
	enable      bool
	inner       *gzip.Writer
}

func (w *gzipWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	h := w.Header()
	if h.Get("Content-Encoding") == "" &&
		code != http.StatusNoContent && code != http.StatusNotModified &&
		w.compressible() {
		w.enable = true
		h.Set("Content-Encoding", _ENCODING_GZIP)
		h.Add("Vary", "Accept-Encoding")
		h.Del("Content-Length")
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *gzipWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(p))
		}
		w.WriteHeader(http.StatusOK)
	}
	if !w.enable {
		return w.ResponseWriter.Write(p)
	}

	if w.inner == nil {
		// level was validated in New
		w.inner, _ = gzip.NewWriterLevel(w.ResponseWriter, w.config.level)
	}
	return w.inner.Write(p)
}

func (w *gzipWriter) Flush() {
	if w.inner != nil {
		_ = w.inner.Flush()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *gzipWriter) Close() error {
	if w.inner == nil {
		return nil
	}
	return w.inner.Close()
}

func (w *gzipWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *gzipWriter) compressible() bool {
	contentType, _, _ := strings.Cut(w.Header().Get("Content-Type"), ";")
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	if _, ok := w.config.contentTypes[contentType]; ok {
		return true
	}
	if major, _, ok := strings.Cut(contentType, "/"); ok {
		_, ok := w.config.wildcards[major]
		return ok
	}
	return false
}
