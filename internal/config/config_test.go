package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Retriever.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Retriever.TopK)
	}
	if cfg.Retriever.SearchType != "similarity" {
		t.Errorf("expected similarity search, got %q", cfg.Retriever.SearchType)
	}
	if cfg.VectorStore.Type != "pinecone" || cfg.VectorStore.Pinecone == nil {
		t.Fatalf("expected pinecone store, got %+v", cfg.VectorStore)
	}
	if cfg.VectorStore.Pinecone.Index != "portfolio" {
		t.Errorf("expected index portfolio, got %q", cfg.VectorStore.Pinecone.Index)
	}
	if cfg.ChatModel.Provider != "euron" {
		t.Errorf("expected euron provider, got %q", cfg.ChatModel.Provider)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected :8080, got %q", cfg.Server.Addr)
	}
	if !strings.Contains(cfg.Prompt.System, "{context}") {
		t.Error("default system prompt must reference {context}")
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Embedder.Type != "huggingface" {
		t.Errorf("expected huggingface embedder, got %q", cfg.Embedder.Type)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
retriever:
  top_k: 5
vector_store:
  type: qdrant
  qdrant:
    url: http://qdrant:6333
chat_model:
  provider: openai
  model: gpt-4o-mini
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Retriever.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retriever.TopK)
	}
	if cfg.VectorStore.Qdrant.Collection != "portfolio" {
		t.Errorf("expected default collection, got %q", cfg.VectorStore.Qdrant.Collection)
	}
	if cfg.ChatModel.Model != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %q", cfg.ChatModel.Model)
	}
	if cfg.ChatModel.BaseURL != "" {
		t.Errorf("openai provider should not inherit the euron base url, got %q", cfg.ChatModel.BaseURL)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("retriever: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Retriever.TopK = 7
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Retriever.TopK != 7 {
		t.Errorf("expected TopK=7, got %d", loaded.Retriever.TopK)
	}
}

func TestParseSecrets_Missing(t *testing.T) {
	cases := map[string]map[string]string{
		"both missing":     {"PINECONE_API_KEY": "", "EURON_API_KEY": ""},
		"pinecone missing": {"PINECONE_API_KEY": "", "EURON_API_KEY": "euron"},
		"euron missing":    {"PINECONE_API_KEY": "pc", "EURON_API_KEY": ""},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			s, err := ParseSecrets()
			if err == nil {
				t.Fatalf("expected error, got secrets %+v", s)
			}
			if !errors.Is(err, ErrMissingSecrets) {
				t.Errorf("expected ErrMissingSecrets, got %v", err)
			}
		})
	}
}

func TestParseSecrets_Present(t *testing.T) {
	t.Setenv("PINECONE_API_KEY", "pc")
	t.Setenv("EURON_API_KEY", "euron")
	t.Setenv("PORT", "9090")

	s, err := ParseSecrets()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.PineconeAPIKey != "pc" || s.EuronAPIKey != "euron" {
		t.Errorf("unexpected secrets %+v", s)
	}
	if addr := s.ListenAddr(ServerConfig{Addr: ":8080"}); addr != ":9090" {
		t.Errorf("expected PORT override, got %q", addr)
	}
}
