package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	arkModel "github.com/cloudwego/eino-ext/components/model/ark"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"ragchat/internal/config"
)

// ErrUnknownProvider is returned for an unsupported chat_model.provider.
var ErrUnknownProvider = errors.New("unknown chat model provider")

type ChatModelMeta struct {
	Provider string
	Model    string
}

// NewChatModelFromConfig builds the chat model. Euron is OpenAI-compatible and
// is reached through the openai client.
func NewChatModelFromConfig(ctx context.Context, conf config.ChatModelConfig, secrets *config.Secrets) (model.BaseChatModel, ChatModelMeta, error) {
	provider := strings.ToLower(strings.TrimSpace(conf.Provider))
	modelName := strings.TrimSpace(conf.Model)
	baseURL := strings.TrimSpace(conf.BaseURL)

	timeout := 2 * time.Minute
	if conf.TimeoutSecs > 0 {
		timeout = time.Duration(conf.TimeoutSecs) * time.Second
	}
	var maxTokens *int
	if conf.MaxTokens > 0 {
		n := conf.MaxTokens
		maxTokens = &n
	}

	euronKey := ""
	if secrets != nil {
		euronKey = strings.TrimSpace(secrets.EuronAPIKey)
	}

	switch provider {
	case "euron", "openai":
		apiKey := euronKey
		if provider == "openai" {
			if k := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); k != "" {
				apiKey = k
			}
		}
		if apiKey == "" || modelName == "" {
			return nil, ChatModelMeta{}, fmt.Errorf("%s chat model missing apiKey/model", provider)
		}
		cm, err := openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
			APIKey:      apiKey,
			Model:       modelName,
			BaseURL:     baseURL,
			Timeout:     timeout,
			Temperature: conf.Temperature,
			MaxTokens:   maxTokens,
		})
		if err != nil {
			return nil, ChatModelMeta{}, err
		}
		return cm, ChatModelMeta{Provider: provider, Model: modelName}, nil

	case "ark":
		apiKey := strings.TrimSpace(os.Getenv("ARK_API_KEY"))
		if apiKey == "" {
			return nil, ChatModelMeta{}, errors.New("ark chat model missing apiKey (env ARK_API_KEY)")
		}
		if modelName == "" {
			return nil, ChatModelMeta{}, errors.New("ark chat model missing model")
		}
		retryTimes := 2
		if conf.RetryTimes > 0 {
			retryTimes = conf.RetryTimes
		}
		cm, err := arkModel.NewChatModel(ctx, &arkModel.ChatModelConfig{
			APIKey:      apiKey,
			Model:       modelName,
			BaseURL:     baseURL,
			Region:      strings.TrimSpace(conf.Region),
			Timeout:     &timeout,
			RetryTimes:  &retryTimes,
			Temperature: conf.Temperature,
			MaxTokens:   maxTokens,
		})
		if err != nil {
			return nil, ChatModelMeta{}, err
		}
		return cm, ChatModelMeta{Provider: "ark", Model: modelName}, nil

	default:
		return nil, ChatModelMeta{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}
