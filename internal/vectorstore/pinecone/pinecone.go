package pinecone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"ragchat/internal/domain"
	"ragchat/internal/pkg/rest"
)

const (
	apiVersion   = "2024-07"
	upsertBatch  = 100
	metaSource   = "source"
	metaDocument = "document_id"
	metaIndex    = "chunk_index"
)

// Storage is a minimal REST client to a Pinecone serverless index.
// The index must already exist; Storage never creates it.
type Storage struct {
	index         string
	namespace     string
	controllerURL string
	textKey       string
	client        *rest.Client

	mu   sync.Mutex
	host string
}

type Config struct {
	APIKey        string
	Index         string
	Host          string
	Namespace     string
	ControllerURL string
	TextKey       string
	Timeout       time.Duration
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("pinecone api key is empty")
	}
	if cfg.Index == "" && cfg.Host == "" {
		return nil, errors.New("pinecone index or host is required")
	}
	if cfg.ControllerURL == "" {
		cfg.ControllerURL = "https://api.pinecone.io"
	}
	if cfg.TextKey == "" {
		cfg.TextKey = "text"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		index:         cfg.Index,
		namespace:     cfg.Namespace,
		controllerURL: strings.TrimRight(cfg.ControllerURL, "/"),
		textKey:       cfg.TextKey,
		host:          normalizeHost(cfg.Host),
		client: rest.New(timeout, map[string]string{
			"Api-Key":                cfg.APIKey,
			"X-Pinecone-API-Version": apiVersion,
		}),
	}, nil
}

// Host returns the data plane URL, describing the index once if needed.
func (s *Storage) Host(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.host != "" {
		return s.host, nil
	}
	var desc struct {
		Host   string `json:"host"`
		Status struct {
			Ready bool `json:"ready"`
		} `json:"status"`
	}
	url := fmt.Sprintf("%s/indexes/%s", s.controllerURL, s.index)
	if err := s.client.DoJSON(ctx, http.MethodGet, url, nil, &desc); err != nil {
		return "", fmt.Errorf("describe pinecone index %q: %w", s.index, err)
	}
	if desc.Host == "" {
		return "", fmt.Errorf("pinecone index %q has no host", s.index)
	}
	s.host = normalizeHost(desc.Host)
	return s.host, nil
}

func (s *Storage) Query(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 3
	}
	host, err := s.Host(ctx)
	if err != nil {
		return nil, err
	}
	req := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
		"includeValues":   false,
	}
	if s.namespace != "" {
		req["namespace"] = s.namespace
	}
	var resp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := s.client.DoJSON(ctx, http.MethodPost, host+"/query", req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		chunk := domain.Chunk{ChunkID: m.ID}
		if v, ok := m.Metadata[s.textKey].(string); ok {
			chunk.Text = v
		}
		if v, ok := m.Metadata[metaSource].(string); ok {
			chunk.Source = v
		}
		if v, ok := m.Metadata[metaDocument].(string); ok {
			chunk.DocumentID = v
		}
		if v, ok := m.Metadata[metaIndex].(float64); ok {
			chunk.Index = int(v)
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: m.Score})
	}
	return results, nil
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	host, err := s.Host(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(chunks); start += upsertBatch {
		end := start + upsertBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		records := make([]map[string]any, 0, end-start)
		for i := start; i < end; i++ {
			records = append(records, map[string]any{
				"id":     chunks[i].ChunkID,
				"values": vectors[i],
				"metadata": map[string]any{
					s.textKey:    chunks[i].Text,
					metaSource:   chunks[i].Source,
					metaDocument: chunks[i].DocumentID,
					metaIndex:    chunks[i].Index,
				},
			})
		}
		body := map[string]any{"vectors": records}
		if s.namespace != "" {
			body["namespace"] = s.namespace
		}
		if err := s.client.DoJSON(ctx, http.MethodPost, host+"/vectors/upsert", body, nil); err != nil {
			return err
		}
	}
	return nil
}

func normalizeHost(h string) string {
	h = strings.TrimRight(strings.TrimSpace(h), "/")
	if h == "" {
		return ""
	}
	if !strings.HasPrefix(h, "http://") && !strings.HasPrefix(h, "https://") {
		h = "https://" + h
	}
	return h
}
