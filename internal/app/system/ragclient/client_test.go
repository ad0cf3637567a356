package ragclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["question"] != "What is the refund policy?" {
			t.Errorf("question = %q", req["question"])
		}
		if req["threadId"] != "t1" || req["userId"] != "u1" {
			t.Errorf("thread/user = %q/%q", req["threadId"], req["userId"])
		}
		json.NewEncoder(w).Encode(Answer{
			Answer:  "Refunds are available within 30 days.",
			Sources: []Source{{Source: "policy.pdf", Page: 4, Snippet: "within 30 days"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	ans, err := c.Query(context.Background(), "What is the refund policy?", "t1", "u1")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if ans.Answer != "Refunds are available within 30 days." {
		t.Errorf("answer = %q", ans.Answer)
	}
	if len(ans.Sources) != 1 || ans.Sources[0].Source != "policy.pdf" || ans.Sources[0].Page != 4 {
		t.Errorf("sources = %+v", ans.Sources)
	}
}

func TestQueryErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Query(context.Background(), "hello", "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("error = %v", err)
	}
}

func TestIngest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ingest" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "handbook.pdf" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		json.NewEncoder(w).Encode(IngestResult{ChunksAdded: 12})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Ingest(context.Background(), "handbook.pdf", "application/pdf", strings.NewReader("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.ChunksAdded != 12 {
		t.Errorf("chunksAdded = %d", res.ChunksAdded)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := New(srv.URL).Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
