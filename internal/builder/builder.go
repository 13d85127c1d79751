package builder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"ragchat/internal/api"
	chatapi "ragchat/internal/api/chat"
	"ragchat/internal/chain"
	"ragchat/internal/chunker"
	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/embedding"
	"ragchat/internal/llm"
	"ragchat/internal/retriever"
	"ragchat/internal/service"
	"ragchat/internal/vectorstore/memory"
	"ragchat/internal/vectorstore/pinecone"
	"ragchat/internal/vectorstore/qdrant"
)

// ChainFactory returns a factory for the full RAG chain. Calling the factory
// only constructs clients; network calls happen when the chain is invoked.
func ChainFactory(cfg *config.AppConfig, secrets *config.Secrets, logger *zap.Logger) service.Factory {
	return func(ctx context.Context) (*chain.Chain, error) {
		emb, embMeta, err := embedding.NewEmbedderFromConfig(ctx, cfg.Embedder)
		if err != nil {
			return nil, fmt.Errorf("embedder: %w", err)
		}
		idx, err := NewVectorIndex(cfg.VectorStore, secrets)
		if err != nil {
			return nil, fmt.Errorf("vector store: %w", err)
		}
		ret, err := retriever.New(retriever.Config{
			Embedder:       emb,
			Index:          idx,
			TopK:           cfg.Retriever.TopK,
			ScoreThreshold: cfg.Retriever.ScoreThreshold,
		})
		if err != nil {
			return nil, fmt.Errorf("retriever: %w", err)
		}
		cm, cmMeta, err := llm.NewChatModelFromConfig(ctx, cfg.ChatModel, secrets)
		if err != nil {
			return nil, fmt.Errorf("chat model: %w", err)
		}
		c, err := chain.New(ctx, ret, chain.NewChatTemplate(cfg.Prompt.System), cm, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("RAG pipeline initialized",
			zap.String("embedder", embMeta.Provider),
			zap.String("embedding_model", embMeta.Model),
			zap.String("vector_store", cfg.VectorStore.Type),
			zap.Int("top_k", cfg.Retriever.TopK),
			zap.String("chat_provider", cmMeta.Provider),
			zap.String("chat_model", cmMeta.Model),
		)
		return c, nil
	}
}

// NewVectorIndex connects to the configured index. No request is sent here.
func NewVectorIndex(conf config.VectorStoreConfig, secrets *config.Secrets) (domain.VectorIndex, error) {
	switch strings.ToLower(conf.Type) {
	case "pinecone":
		if conf.Pinecone == nil {
			return nil, errors.New("vector_store.pinecone is not configured")
		}
		apiKey := ""
		if secrets != nil {
			apiKey = secrets.PineconeAPIKey
		}
		p := conf.Pinecone
		s, err := pinecone.NewStorage(pinecone.Config{
			APIKey:        apiKey,
			Index:         p.Index,
			Host:          p.Host,
			Namespace:     p.Namespace,
			ControllerURL: p.ControllerURL,
			TextKey:       p.TextKey,
			Timeout:       time.Duration(p.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "qdrant":
		if conf.Qdrant == nil {
			return nil, errors.New("vector_store.qdrant is not configured")
		}
		q := conf.Qdrant
		apiKey := ""
		if q.APIKeyEnv != "" {
			apiKey = os.Getenv(q.APIKeyEnv)
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     apiKey,
			Collection: q.Collection,
			Distance:   q.Distance,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		}), nil
	case "memory":
		return memory.NewStorage(), nil
	default:
		return nil, fmt.Errorf("unknown vector store type: %s", conf.Type)
	}
}

// NewService returns an answer-only service whose chain is built on first use.
func NewService(cfg *config.AppConfig, secrets *config.Secrets, logger *zap.Logger) *service.RAGService {
	return service.NewRAGService(service.Config{
		Pipeline: service.NewLazy(ChainFactory(cfg, secrets, logger)),
		CacheTTL: time.Duration(cfg.Cache.TTLSecs) * time.Second,
		Logger:   logger,
	})
}

// NewIngestService returns a service able to populate the vector index.
func NewIngestService(ctx context.Context, cfg *config.AppConfig, secrets *config.Secrets, logger *zap.Logger) (*service.RAGService, error) {
	emb, _, err := embedding.NewEmbedderFromConfig(ctx, cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	idx, err := NewVectorIndex(cfg.VectorStore, secrets)
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}
	return service.NewRAGService(service.Config{
		Pipeline:  service.NewLazy(ChainFactory(cfg, secrets, logger)),
		Logger:    logger,
		Chunker:   chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences),
		Embedder:  emb,
		Index:     idx,
		BatchSize: cfg.Embedder.BatchSize,
	}), nil
}

// Web wires the web front end. The pipeline is shared by all requests.
func Web(cfg *config.AppConfig, secrets *config.Secrets, logger *zap.Logger) (*App, error) {
	logger.Info("Building application", zap.String("server_addr", secrets.ListenAddr(cfg.Server)))

	svc := NewService(cfg, secrets, logger)
	chatHandler, err := chatapi.NewHandler(svc, cfg.About.Title)
	if err != nil {
		return nil, fmt.Errorf("chat handler: %w", err)
	}

	requestTimeout := time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second
	router := api.SetupRouter(chatHandler, requestTimeout, logger)
	logger.Info("HTTP router configured")

	server := &http.Server{
		Addr:         secrets.ListenAddr(cfg.Server),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		server:          server,
		logger:          logger,
		shutdownTimeout: time.Duration(cfg.Server.ShutdownSecs) * time.Second,
	}, nil
}
