package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"ragchat/internal/pkg/rest"
)

// Client calls a Hugging Face feature-extraction endpoint (hosted inference or
// a text-embeddings-inference server) and implements eino's embedding.Embedder.
type Client struct {
	url       string
	batchSize int
	client    *rest.Client
}

// Config configures the feature-extraction client. Token may be empty for
// self-hosted servers.
type Config struct {
	URL       string
	Token     string
	BatchSize int
	Timeout   time.Duration
}

var _ embedding.Embedder = (*Client)(nil)

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("huggingface embedding url is empty")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	headers := map[string]string{}
	if cfg.Token != "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}
	return &Client{
		url:       cfg.URL,
		batchSize: cfg.BatchSize,
		client:    rest.New(t, headers),
	}, nil
}

// EmbedStrings returns one vector per input text, in order.
func (c *Client) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, batch []string) ([][]float64, error) {
	body := map[string]any{
		"inputs":  batch,
		"options": map[string]any{"wait_for_model": true},
	}
	var raw json.RawMessage
	if err := c.client.DoJSON(ctx, http.MethodPost, c.url, body, &raw); err != nil {
		return nil, fmt.Errorf("huggingface embeddings failed: %w", err)
	}
	vecs, err := decodeVectors(raw)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(batch) {
		return nil, fmt.Errorf("huggingface returned %d embeddings for %d inputs", len(vecs), len(batch))
	}
	return vecs, nil
}

// decodeVectors accepts sentence-level output ([][]float64) and token-level
// output ([][][]float64), mean-pooling the latter.
func decodeVectors(raw json.RawMessage) ([][]float64, error) {
	var sentence [][]float64
	if err := json.Unmarshal(raw, &sentence); err == nil {
		for _, v := range sentence {
			if len(v) == 0 {
				return nil, errors.New("empty embedding")
			}
		}
		return sentence, nil
	}
	var tokens [][][]float64
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, errors.New("no embedding returned")
	}
	out := make([][]float64, len(tokens))
	for i, toks := range tokens {
		if len(toks) == 0 || len(toks[0]) == 0 {
			return nil, errors.New("empty embedding")
		}
		mean := make([]float64, len(toks[0]))
		for _, tok := range toks {
			for j := range mean {
				if j < len(tok) {
					mean[j] += tok[j]
				}
			}
		}
		for j := range mean {
			mean[j] /= float64(len(toks))
		}
		out[i] = mean
	}
	return out, nil
}
