package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"ragchat/internal/chain"
	"ragchat/internal/domain"
)

var (
	ErrEmptyQuestion  = errors.New("empty question")
	ErrNoDocuments    = errors.New("no .txt or .md documents found")
	ErrIngestDisabled = errors.New("ingestion is not configured")
)

const defaultIngestBatch = 32

// Progress receives ingest progress. *progressbar.ProgressBar satisfies it.
type Progress interface {
	ChangeMax(max int)
	Add(num int) error
}

type Config struct {
	Pipeline *Lazy
	// CacheTTL enables the answer cache when positive.
	CacheTTL time.Duration
	Logger   *zap.Logger

	// Ingest dependencies. Optional for answer-only front ends.
	Chunker   domain.Chunker
	Embedder  embedding.Embedder
	Index     domain.VectorIndex
	BatchSize int
}

type RAGService struct {
	pipeline  *Lazy
	answers   *cache.Cache
	logger    *zap.Logger
	chunker   domain.Chunker
	embedder  embedding.Embedder
	index     domain.VectorIndex
	batchSize int
}

type IngestStats struct {
	Files  int
	Chunks int
}

func NewRAGService(cfg Config) *RAGService {
	s := &RAGService{
		pipeline:  cfg.Pipeline,
		logger:    cfg.Logger,
		chunker:   cfg.Chunker,
		embedder:  cfg.Embedder,
		index:     cfg.Index,
		batchSize: cfg.BatchSize,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultIngestBatch
	}
	if cfg.CacheTTL > 0 {
		s.answers = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return s
}

// Pipeline exposes the lazily built chain.
func (s *RAGService) Pipeline() *Lazy { return s.pipeline }

// Ask answers a question through the chain, building it on first use.
func (s *RAGService) Ask(ctx context.Context, question string) (*chain.Result, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, ErrEmptyQuestion
	}
	s.logger.Info("user input", zap.String("input", q))

	key := cacheKey(q)
	if s.answers != nil {
		if v, ok := s.answers.Get(key); ok {
			res := v.(*chain.Result)
			s.logger.Debug("answer cache hit", zap.Int("answer_len", len(res.Answer)))
			return res, nil
		}
	}

	c, err := s.pipeline.Get(ctx)
	if err != nil {
		return nil, err
	}
	res, err := c.Invoke(ctx, q)
	if err != nil {
		return nil, err
	}
	s.logger.Info("response", zap.Int("answer_len", len(res.Answer)))
	if s.answers != nil {
		s.answers.SetDefault(key, res)
	}
	return res, nil
}

// Ingest chunks, embeds and upserts the .txt/.md files matched by patterns.
func (s *RAGService) Ingest(ctx context.Context, patterns []string, progress Progress) (IngestStats, error) {
	if s.chunker == nil || s.embedder == nil || s.index == nil {
		return IngestStats{}, ErrIngestDisabled
	}
	paths, err := ExpandPatterns(patterns)
	if err != nil {
		return IngestStats{}, err
	}
	if len(paths) == 0 {
		return IngestStats{}, ErrNoDocuments
	}

	var chunks []domain.Chunk
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return IngestStats{}, err
		}
		doc := domain.Document{ID: hashString(p), Path: p, Content: string(data)}
		cs, err := s.chunker.Chunk(doc)
		if err != nil {
			return IngestStats{}, fmt.Errorf("chunk %s: %w", p, err)
		}
		chunks = append(chunks, cs...)
	}
	if progress != nil {
		progress.ChangeMax(len(chunks))
	}

	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Text
		}
		vectors, err := s.embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return IngestStats{}, fmt.Errorf("embed chunks: %w", err)
		}
		if err := s.index.Upsert(ctx, batch, vectors); err != nil {
			return IngestStats{}, fmt.Errorf("upsert chunks: %w", err)
		}
		if progress != nil {
			_ = progress.Add(len(batch))
		}
	}

	s.logger.Info("ingest done", zap.Int("files", len(paths)), zap.Int("chunks", len(chunks)))
	return IngestStats{Files: len(paths), Chunks: len(chunks)}, nil
}

// ExpandPatterns resolves glob patterns (** supported) to a sorted, de-duplicated
// list of .txt and .md files.
func ExpandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		for _, m := range matches {
			ext := strings.ToLower(filepath.Ext(m))
			if ext != ".txt" && ext != ".md" {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

func cacheKey(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
