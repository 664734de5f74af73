package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func echoHandler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	defer r.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("echo: " + string(body)))
}

func TestGzipMiddleware_CompressesResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Accept-Encoding", "gzip")

	w := httptest.NewRecorder()
	GzipMiddleware(http.HandlerFunc(echoHandler)).ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if ce := res.Header.Get("Content-Encoding"); ce != "gzip" {
		t.Fatalf("content-encoding = %q, want gzip", ce)
	}

	gr, err := gzip.NewReader(res.Body)
	if err != nil {
		t.Fatalf("new gzip reader: %v", err)
	}
	defer gr.Close()

	body, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != `echo: {"title":"x"}` {
		t.Fatalf("body = %q", body)
	}
}

func TestGzipMiddleware_PassesThroughWithoutAcceptEncoding(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader("plain"))

	w := httptest.NewRecorder()
	GzipMiddleware(http.HandlerFunc(echoHandler)).ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if ce := res.Header.Get("Content-Encoding"); ce != "" {
		t.Fatalf("content-encoding = %q, want empty", ce)
	}

	body, _ := io.ReadAll(res.Body)
	if string(body) != "echo: plain" {
		t.Fatalf("body = %q", body)
	}
}

func TestGzipMiddleware_DecompressesRequest(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte("compressed payload")); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/books", &buf)
	req.Header.Set("Content-Encoding", "gzip")

	w := httptest.NewRecorder()
	GzipMiddleware(http.HandlerFunc(echoHandler)).ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if string(body) != "echo: compressed payload" {
		t.Fatalf("body = %q", body)
	}
}

func TestGzipMiddleware_BadCompressedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")

	w := httptest.NewRecorder()
	GzipMiddleware(http.HandlerFunc(echoHandler)).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
