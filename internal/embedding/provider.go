package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"ragchat/internal/config"
	"ragchat/internal/embedding/huggingface"
)

// ErrUnknownProvider is returned for an unsupported embedder.type.
var ErrUnknownProvider = errors.New("unknown embedding provider")

type EmbedderMeta struct {
	Provider string
	Model    string
	Dim      int
}

// NewEmbedderFromConfig builds the query/document embedder. No network I/O happens here.
func NewEmbedderFromConfig(ctx context.Context, conf config.EmbedderConfig) (embedding.Embedder, EmbedderMeta, error) {
	provider := strings.ToLower(strings.TrimSpace(conf.Type))
	model := strings.TrimSpace(conf.Model)
	timeout := time.Duration(conf.TimeoutSecs) * time.Second
	apiKey := ""
	if conf.APIKeyEnv != "" {
		apiKey = strings.TrimSpace(os.Getenv(conf.APIKeyEnv))
	}

	switch provider {
	case "huggingface", "hf":
		c, err := huggingface.NewClient(huggingface.Config{
			URL:       conf.BaseURL,
			Token:     apiKey,
			BatchSize: conf.BatchSize,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return c, EmbedderMeta{Provider: "huggingface", Model: model, Dim: conf.Dimensions}, nil

	case "openai":
		if apiKey == "" || model == "" {
			return nil, EmbedderMeta{}, fmt.Errorf("openai embedding missing apiKey/model (env %s)", conf.APIKeyEnv)
		}
		cfg := &openaiEmbed.EmbeddingConfig{
			APIKey:  apiKey,
			Model:   model,
			BaseURL: conf.BaseURL,
			Timeout: timeout,
		}
		if conf.Dimensions > 0 {
			dim := conf.Dimensions
			cfg.Dimensions = &dim
		}
		em, err := openaiEmbed.NewEmbedder(ctx, cfg)
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return em, EmbedderMeta{Provider: "openai", Model: model, Dim: conf.Dimensions}, nil

	default:
		return nil, EmbedderMeta{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}
