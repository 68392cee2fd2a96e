package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}

		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["text"] != "mission text" {
			t.Errorf("unexpected text %q", payload["text"])
		}

		_, _ = w.Write([]byte(`{"embedding": [0.1, -0.5, 2]}`))
	}))
	defer server.Close()

	embedding, err := NewClient(server.URL, "key").Embed(context.Background(), "mission text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(embedding) != 3 || embedding[1] != -0.5 {
		t.Fatalf("unexpected embedding: %v", embedding)
	}
}

func TestEmbedEmptyVector(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding": []}`))
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, "").Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected an error for an empty embedding")
	}
}

func TestEmbedErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, "").Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected an error for a non-200 status")
	}
}
