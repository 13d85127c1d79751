package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"

	"ragchat/internal/domain"
	"ragchat/internal/vectorstore/memory"
)

type fakeEmbedder struct {
	calls int
	vec   []float64
	err   error
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

func seededStore(t *testing.T) *memory.Storage {
	t.Helper()
	s := memory.NewStorage()
	chunks := []domain.Chunk{
		{ChunkID: "c1", Text: "works on OCR", Source: "cv.txt"},
		{ChunkID: "c2", Text: "builds RAG pipelines", Source: "cv.txt", Index: 1},
		{ChunkID: "c3", Text: "medical imaging research", Source: "cv.txt", Index: 2},
		{ChunkID: "c4", Text: "plays chess", Source: "hobbies.txt"},
	}
	vectors := [][]float64{{1, 0, 0}, {0.9, 0.1, 0}, {0.5, 0.5, 0}, {0, 0, 1}}
	if err := s.Upsert(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	r, err := New(Config{Embedder: &fakeEmbedder{vec: []float64{1, 0, 0}}, Index: seededStore(t)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	docs, err := r.Retrieve(context.Background(), "what does he work on?")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) != DefaultTopK {
		t.Fatalf("expected %d docs, got %d", DefaultTopK, len(docs))
	}
	if docs[0].ID != "c1" || docs[0].Score() < 0.99 {
		t.Errorf("unexpected first doc %s score %f", docs[0].ID, docs[0].Score())
	}
	if docs[1].MetaData[MetaSource] != "cv.txt" || docs[1].MetaData[MetaChunkIndex] != 1 {
		t.Errorf("metadata not mapped: %v", docs[1].MetaData)
	}
}

func TestRetrieve_Options(t *testing.T) {
	r, _ := New(Config{Embedder: &fakeEmbedder{vec: []float64{1, 0, 0}}, Index: seededStore(t)})

	docs, err := r.Retrieve(context.Background(), "q", retriever.WithTopK(1))
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 doc, got %d", len(docs))
	}

	docs, err = r.Retrieve(context.Background(), "q", retriever.WithScoreThreshold(0.95))
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	for _, d := range docs {
		if d.Score() < 0.95 {
			t.Errorf("doc %s below threshold: %f", d.ID, d.Score())
		}
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 docs above threshold, got %d", len(docs))
	}
}

func TestRetrieve_EmptyQuerySkipsNetwork(t *testing.T) {
	emb := &fakeEmbedder{vec: []float64{1}}
	r, _ := New(Config{Embedder: emb, Index: memory.NewStorage()})
	if _, err := r.Retrieve(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if emb.calls != 0 {
		t.Errorf("embedder must not be called for empty query")
	}
}

func TestRetrieve_EmbedError(t *testing.T) {
	boom := errors.New("hf unavailable")
	r, _ := New(Config{Embedder: &fakeEmbedder{err: boom}, Index: memory.NewStorage()})
	if _, err := r.Retrieve(context.Background(), "q"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped embed error, got %v", err)
	}
}
