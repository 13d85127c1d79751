package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_EmbedStringsBatches(t *testing.T) {
	var batches [][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer hf-token" {
			t.Errorf("missing bearer token")
		}
		var body struct {
			Inputs []string `json:"inputs"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		batches = append(batches, body.Inputs)
		out := make([][]float64, len(body.Inputs))
		for i, in := range body.Inputs {
			out[i] = []float64{float64(len(in)), 1}
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, Token: "hf-token", BatchSize: 2})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	vecs, err := c.EmbedStrings(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if len(vecs) != 3 || vecs[2][0] != 3 {
		t.Errorf("unexpected vectors %v", vecs)
	}
}

func TestClient_MeanPoolsTokenOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[[1,2],[3,4]]]`))
	}))
	defer srv.Close()

	c, _ := NewClient(Config{URL: srv.URL})
	vecs, err := c.EmbedStrings(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if vecs[0][0] != 2 || vecs[0][1] != 3 {
		t.Errorf("expected mean [2 3], got %v", vecs[0])
	}
}

func TestClient_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1,2]]`))
	}))
	defer srv.Close()

	c, _ := NewClient(Config{URL: srv.URL})
	_, err := c.EmbedStrings(context.Background(), []string{"a", "b"})
	if err == nil || !strings.Contains(err.Error(), "1 embeddings for 2 inputs") {
		t.Errorf("expected count mismatch error, got %v", err)
	}
}

func TestNewClient_RequiresURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error for empty url")
	}
}
