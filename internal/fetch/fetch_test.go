package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kamusis/aipkg/internal/apperr"
)

func TestRewriteURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://github.com/o/r/blob/main/appimage.yaml", "https://github.com/o/r/raw/main/appimage.yaml"},
		{"https://github.com/o/r/raw/main/appimage.yaml", "https://github.com/o/r/raw/main/appimage.yaml"},
		{"https://example.com/blob/x.yaml", "https://example.com/blob/x.yaml"},
	}
	for _, c := range cases {
		if got := RewriteURL(c.in); got != c.want {
			t.Fatalf("RewriteURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFetchText(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("apps: []\n"))
	}))
	defer srv.Close()

	f := New(5*time.Second, "aipkg-test")
	data, err := f.FetchText(context.Background(), srv.URL+"/apps.yaml")
	if err != nil {
		t.Fatalf("FetchText: %v", err)
	}
	if string(data) != "apps: []\n" {
		t.Fatalf("body = %q", data)
	}
	if gotUA != "aipkg-test" {
		t.Fatalf("User-Agent = %q", gotUA)
	}

	_, err = f.FetchText(context.Background(), srv.URL+"/missing")
	if !apperr.Is(err, apperr.CodeNetwork) {
		t.Fatalf("expected NETWORK error, got %v", err)
	}
}

func TestFetchBinary_Progress(t *testing.T) {
	payload := make([]byte, 100_000)
	for i := range payload {
		payload[i] = byte(i)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f := New(0, "")
	var last int64
	f.Progress = func(downloaded, total int64) { last = downloaded }

	data, err := f.FetchBinary(context.Background(), srv.URL+"/a.AppImage", int64(len(payload)))
	if err != nil {
		t.Fatalf("FetchBinary: %v", err)
	}
	if len(data) != len(payload) {
		t.Fatalf("len = %d, want %d", len(data), len(payload))
	}
	if last != int64(len(payload)) {
		t.Fatalf("final progress = %d", last)
	}
}

func TestFetchBinary_InflatedSizeHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("tiny"))
	}))
	defer srv.Close()

	var lastTotal int64
	f := New(5*time.Second, "")
	f.Progress = func(_, total int64) { lastTotal = total }

	data, err := f.FetchBinary(context.Background(), srv.URL, 1<<50)
	if err != nil {
		t.Fatalf("FetchBinary: %v", err)
	}
	if string(data) != "tiny" {
		t.Fatalf("body = %q", data)
	}
	if lastTotal != 1<<50 {
		t.Fatalf("progress total = %d, want the size hint", lastTotal)
	}
}

func TestPreallocSize(t *testing.T) {
	cases := []struct {
		hint, contentLength int64
		want                int
	}{
		{0, 0, 0},
		{1 << 50, 0, 0},
		{1 << 50, -1, 0},
		{1 << 50, 4, 4},
		{10, 100, 10},
		{0, 100, 100},
		{0, 1 << 40, maxPrealloc},
	}
	for _, c := range cases {
		if got := preallocSize(c.hint, c.contentLength); got != c.want {
			t.Fatalf("preallocSize(%d, %d) = %d, want %d", c.hint, c.contentLength, got, c.want)
		}
	}
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(time.Second, "").FetchText(context.Background(), url)
	if !apperr.Is(err, apperr.CodeNetwork) {
		t.Fatalf("expected NETWORK error, got %v", err)
	}
}
