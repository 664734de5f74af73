package imagestore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestUpload_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/images" {
			t.Fatalf("path = %s, want /api/images", r.URL.Path)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()

		if header.Filename != "cover.jpg" {
			t.Fatalf("filename = %s, want cover.jpg", header.Filename)
		}
		data, err := io.ReadAll(file)
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if string(data) != "jpeg-bytes" {
			t.Fatalf("file content = %q", data)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"url":"http://cdn.example.com/covers/abc.jpg"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	url, err := client.Upload(ctx, "cover.jpg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if url != "http://cdn.example.com/covers/abc.jpg" {
		t.Fatalf("url = %s", url)
	}
}

func TestUpload_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := client.Upload(ctx, "cover.jpg", strings.NewReader("x")); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestDelete_NotFoundIsOK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("method = %s, want DELETE", r.Method)
		}
		if got := r.URL.Query().Get("url"); got != "http://cdn.example.com/covers/abc.jpg" {
			t.Fatalf("url query = %s", got)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := client.Delete(ctx, "http://cdn.example.com/covers/abc.jpg"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestNotConfigured(t *testing.T) {
	client := NewClient("")

	if _, err := client.Upload(context.Background(), "a.jpg", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
	if err := client.Delete(context.Background(), "http://x/y.jpg"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}
