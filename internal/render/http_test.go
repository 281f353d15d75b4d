package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	v0 "seiza/internal/contracts/renderer/v0"
)

func TestHTTPRender(t *testing.T) {
	var got v0.RenderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/render" {
			t.Errorf("expected path /render, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte("video-bytes"))
	}))
	defer srv.Close()

	spec := Spec{
		JobID: "job-1",
		Name:  "Jane",
		Texts: [6]string{"ジア", "十五", "カ", "ジア 十五 カ", "ジャネ", "Jane"},
	}

	path, err := NewHTTP(srv.URL).Render(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Remove(path)

	if got.JobID != "job-1" || got.Name != "Jane" || len(got.Texts) != 6 {
		t.Errorf("unexpected request: %+v", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("expected video-bytes, got %q", string(data))
	}
}

func TestHTTPRenderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL).Render(context.Background(), Spec{JobID: "job-1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "renderer http 500") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestHTTPRenderCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTP(srv.URL).Render(ctx, Spec{JobID: "job-1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if ctx.Err() == nil || err.Error() != ctx.Err().Error() {
		t.Errorf("expected context error, got %v", err)
	}
}
