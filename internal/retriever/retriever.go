package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"ragchat/internal/domain"
)

const (
	DefaultTopK = 3

	MetaSource     = "source"
	MetaDocumentID = "document_id"
	MetaChunkIndex = "chunk_index"
)

// ErrEmptyQuery is returned before any network call when the query is blank.
var ErrEmptyQuery = errors.New("empty query")

// VectorRetriever embeds the query and runs a similarity search on the index.
type VectorRetriever struct {
	embedder       embedding.Embedder
	index          domain.VectorIndex
	topK           int
	scoreThreshold float64
}

var _ retriever.Retriever = (*VectorRetriever)(nil)

type Config struct {
	Embedder       embedding.Embedder
	Index          domain.VectorIndex
	TopK           int
	ScoreThreshold float64
}

func New(cfg Config) (*VectorRetriever, error) {
	if cfg.Embedder == nil {
		return nil, errors.New("embedder is nil")
	}
	if cfg.Index == nil {
		return nil, errors.New("vector index is nil")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &VectorRetriever{
		embedder:       cfg.Embedder,
		index:          cfg.Index,
		topK:           cfg.TopK,
		scoreThreshold: cfg.ScoreThreshold,
	}, nil
}

// Retrieve returns up to topK documents ordered by similarity, score attached.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	topK := r.topK
	threshold := r.scoreThreshold
	o := retriever.GetCommonOptions(&retriever.Options{TopK: &topK, ScoreThreshold: &threshold}, opts...)
	if o.TopK != nil && *o.TopK > 0 {
		topK = *o.TopK
	}
	if o.ScoreThreshold != nil {
		threshold = *o.ScoreThreshold
	}

	vecs, err := r.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, errors.New("embedding result is empty")
	}

	hits, err := r.index.Query(ctx, vecs[0], topK)
	if err != nil {
		return nil, fmt.Errorf("query vector index: %w", err)
	}

	docs := make([]*schema.Document, 0, len(hits))
	for _, h := range hits {
		if threshold > 0 && h.Score < threshold {
			continue
		}
		doc := &schema.Document{
			ID:      h.Chunk.ChunkID,
			Content: h.Chunk.Text,
			MetaData: map[string]any{
				MetaSource:     h.Chunk.Source,
				MetaDocumentID: h.Chunk.DocumentID,
				MetaChunkIndex: h.Chunk.Index,
			},
		}
		docs = append(docs, doc.WithScore(h.Score))
		if len(docs) == topK {
			break
		}
	}
	return docs, nil
}
