package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetHtml(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><form id="f"><input name="a"></form></body></html>`))
	}))
	defer srv.Close()

	doc, err := NewFetcher().GetHtml(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Find("form#f input").Length() != 1 {
		t.Error("fetched document missing expected form control")
	}
}

func TestGetHtmlBytesNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewFetcher().GetHtmlBytes(context.Background(), srv.URL); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestGetHtmlBytesCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFetcher().GetHtmlBytes(ctx, srv.URL); err == nil {
		t.Error("expected error for cancelled context")
	}
}
