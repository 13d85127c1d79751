package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the web front end.
type ServerConfig struct {
	Addr               string `yaml:"addr"`
	RequestTimeoutSecs int    `yaml:"request_timeout_secs"`
	ShutdownSecs       int    `yaml:"shutdown_secs"`
}

// LogConfig configures the zap logger. File enables rotation through lumberjack.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type        string `yaml:"type"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	Dimensions  int    `yaml:"dimensions"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
}

// PineconeConfig points at an existing Pinecone index. Host is resolved from
// the control plane when empty.
type PineconeConfig struct {
	Index         string `yaml:"index"`
	Host          string `yaml:"host"`
	Namespace     string `yaml:"namespace"`
	ControllerURL string `yaml:"controller_url"`
	TextKey       string `yaml:"text_key"`
	TimeoutSecs   int    `yaml:"timeout_secs"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	Distance    string `yaml:"distance"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrieverConfig configures the nearest-neighbour query.
type RetrieverConfig struct {
	SearchType     string  `yaml:"search_type"`
	TopK           int     `yaml:"top_k"`
	ScoreThreshold float64 `yaml:"score_threshold"`
}

// ChatModelConfig selects the hosted chat-completion provider.
type ChatModelConfig struct {
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	Region      string   `yaml:"region"`
	Temperature *float32 `yaml:"temperature,omitempty"`
	MaxTokens   int      `yaml:"max_tokens"`
	TimeoutSecs int      `yaml:"timeout_secs"`
	RetryTimes  int      `yaml:"retry_times"`
}

// PromptConfig holds the system prompt. It should reference {context}.
type PromptConfig struct {
	System string `yaml:"system"`
}

// ChunkerConfig configures how documents are split into chunks on ingest.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// CacheConfig enables the answer cache when TTLSecs > 0.
type CacheConfig struct {
	TTLSecs int `yaml:"ttl_secs"`
}

// AboutConfig is the content of the dashboard "About" page.
type AboutConfig struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	ChatModel   ChatModelConfig   `yaml:"chat_model"`
	Prompt      PromptConfig      `yaml:"prompt"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Cache       CacheConfig       `yaml:"cache"`
	About       AboutConfig       `yaml:"about"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragchat/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RequestTimeoutSecs == 0 {
		cfg.Server.RequestTimeoutSecs = 60
	}
	if cfg.Server.ShutdownSecs == 0 {
		cfg.Server.ShutdownSecs = 30
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 14
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "huggingface"
	}
	switch cfg.Embedder.Type {
	case "huggingface":
		if cfg.Embedder.Model == "" {
			cfg.Embedder.Model = "sentence-transformers/all-MiniLM-L6-v2"
		}
		if cfg.Embedder.BaseURL == "" {
			cfg.Embedder.BaseURL = "https://router.huggingface.co/hf-inference/models/" + cfg.Embedder.Model + "/pipeline/feature-extraction"
		}
		if cfg.Embedder.APIKeyEnv == "" {
			cfg.Embedder.APIKeyEnv = "HF_TOKEN"
		}
	case "openai":
		if cfg.Embedder.Model == "" {
			cfg.Embedder.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.BaseURL == "" {
			cfg.Embedder.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.APIKeyEnv == "" {
			cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "pinecone"
	}
	if cfg.VectorStore.Type == "pinecone" {
		if cfg.VectorStore.Pinecone == nil {
			cfg.VectorStore.Pinecone = &PineconeConfig{}
		}
		p := cfg.VectorStore.Pinecone
		if p.Index == "" {
			p.Index = "portfolio"
		}
		if p.ControllerURL == "" {
			p.ControllerURL = "https://api.pinecone.io"
		}
		if p.TextKey == "" {
			p.TextKey = "text"
		}
		if p.TimeoutSecs == 0 {
			p.TimeoutSecs = 15
		}
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		q := cfg.VectorStore.Qdrant
		if q.URL == "" {
			q.URL = "http://localhost:6333"
		}
		if q.Collection == "" {
			q.Collection = "portfolio"
		}
		if q.Distance == "" {
			q.Distance = "Cosine"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}

	if cfg.Retriever.SearchType == "" {
		cfg.Retriever.SearchType = "similarity"
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 3
	}

	if cfg.ChatModel.Provider == "" {
		cfg.ChatModel.Provider = "euron"
	}
	if cfg.ChatModel.Provider == "euron" {
		if cfg.ChatModel.Model == "" {
			cfg.ChatModel.Model = "gpt-4.1-nano"
		}
		if cfg.ChatModel.BaseURL == "" {
			cfg.ChatModel.BaseURL = "https://api.euron.one/api/v1/euri"
		}
	}
	if cfg.ChatModel.TimeoutSecs == 0 {
		cfg.ChatModel.TimeoutSecs = 120
	}

	if cfg.Prompt.System == "" {
		cfg.Prompt.System = DefaultSystemPrompt
	}

	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "sentence"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}

	if cfg.About.Title == "" {
		cfg.About.Title = "About"
	}
	if cfg.About.Body == "" {
		cfg.About.Body = "Ask the Chatbot anything about this portfolio. Press Tab to switch pages."
	}
}

// DefaultSystemPrompt is used when prompt.system is not configured.
const DefaultSystemPrompt = "You are an assistant for question-answering tasks. " +
	"Use the following pieces of retrieved context to answer the question. " +
	"If you don't know the answer, say that you don't know. " +
	"Use three sentences maximum and keep the answer concise.\n\n{context}"
