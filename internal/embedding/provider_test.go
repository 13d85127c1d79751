package embedding

import (
	"context"
	"errors"
	"testing"

	"ragchat/internal/config"
	"ragchat/internal/embedding/huggingface"
)

func TestNewEmbedderFromConfig_HuggingFace(t *testing.T) {
	t.Setenv("HF_TOKEN", "token")
	em, meta, err := NewEmbedderFromConfig(context.Background(), config.EmbedderConfig{
		Type:      "huggingface",
		Model:     "sentence-transformers/all-MiniLM-L6-v2",
		BaseURL:   "http://localhost:8081/embed",
		APIKeyEnv: "HF_TOKEN",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := em.(*huggingface.Client); !ok {
		t.Errorf("expected huggingface client, got %T", em)
	}
	if meta.Provider != "huggingface" {
		t.Errorf("unexpected provider %q", meta.Provider)
	}
}

func TestNewEmbedderFromConfig_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, _, err := NewEmbedderFromConfig(context.Background(), config.EmbedderConfig{
		Type:      "openai",
		Model:     "text-embedding-3-small",
		APIKeyEnv: "OPENAI_API_KEY",
	})
	if err == nil {
		t.Error("expected error for missing openai key")
	}
}

func TestNewEmbedderFromConfig_Unknown(t *testing.T) {
	_, _, err := NewEmbedderFromConfig(context.Background(), config.EmbedderConfig{Type: "word2vec"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}
