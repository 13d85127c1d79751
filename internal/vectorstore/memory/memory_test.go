package memory

import (
	"context"
	"testing"

	"ragchat/internal/domain"
)

func TestStorage_QueryOrdersByCosine(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	chunks := []domain.Chunk{
		{ChunkID: "a", Text: "alpha"},
		{ChunkID: "b", Text: "beta"},
		{ChunkID: "c", Text: "gamma"},
		{ChunkID: "d", Text: "delta"},
	}
	vectors := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
		{0, 0, 1},
	}
	if err := s.Upsert(ctx, chunks, vectors); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	res, err := s.Query(ctx, []float64{2, 0, 0}, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("expected default k=3, got %d", len(res))
	}
	if res[0].Chunk.ChunkID != "a" || res[1].Chunk.ChunkID != "c" {
		t.Errorf("unexpected order: %v, %v", res[0].Chunk.ChunkID, res[1].Chunk.ChunkID)
	}
	if res[0].Score < 0.999 {
		t.Errorf("expected ~1.0 score for identical direction, got %f", res[0].Score)
	}
}

func TestStorage_UpsertReplacesByID(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	_ = s.Upsert(ctx, []domain.Chunk{{ChunkID: "a", Text: "old"}}, [][]float64{{1, 0}})
	_ = s.Upsert(ctx, []domain.Chunk{{ChunkID: "a", Text: "new"}}, [][]float64{{0, 1}})

	if s.Len() != 1 {
		t.Fatalf("expected 1 chunk, got %d", s.Len())
	}
	res, _ := s.Query(ctx, []float64{0, 1}, 1)
	if res[0].Chunk.Text != "new" {
		t.Errorf("expected replaced text, got %q", res[0].Chunk.Text)
	}
}

func TestStorage_Errors(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	if err := s.Upsert(ctx, []domain.Chunk{{ChunkID: "a"}}, nil); err == nil {
		t.Error("expected length mismatch error")
	}
	if err := s.Upsert(ctx, []domain.Chunk{{ChunkID: "a"}, {ChunkID: "b"}}, [][]float64{{1, 0}, {1, 0, 0}}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	_ = s.Upsert(ctx, []domain.Chunk{{ChunkID: "c"}}, [][]float64{{1, 0}})
	if _, err := s.Query(ctx, []float64{1, 0, 0}, 1); err == nil {
		t.Error("expected query dimension mismatch error")
	}
}
