package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// Result is the output of one chain invocation.
type Result struct {
	Input   string
	Context []*schema.Document
	Answer  string
}

// Chain is retrieve, stuff documents into the prompt, generate.
// It is safe for concurrent use.
type Chain struct {
	retriever retriever.Retriever
	template  prompt.ChatTemplate
	chatModel model.BaseChatModel
	logger    *zap.Logger
	r         compose.Runnable[string, *Result]
}

// chainState is passed between graph nodes.
type chainState struct {
	Input      string
	Docs       []*schema.Document
	Context    string
	Messages   []*schema.Message
	Answer     string
	Start      time.Time
	RetrieveMs int64
	GenerateMs int64
}

func New(ctx context.Context, r retriever.Retriever, tpl prompt.ChatTemplate, cm model.BaseChatModel, logger *zap.Logger) (*Chain, error) {
	if r == nil {
		return nil, errors.New("retriever is nil")
	}
	if tpl == nil {
		return nil, errors.New("chat template is nil")
	}
	if cm == nil {
		return nil, errors.New("chat model is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Chain{retriever: r, template: tpl, chatModel: cm, logger: logger}
	runnable, err := c.buildGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile rag chain: %w", err)
	}
	c.r = runnable
	return c, nil
}

// Invoke answers input using the retrieved context. The answer is the model
// output as-is.
func (c *Chain) Invoke(ctx context.Context, input string) (*Result, error) {
	return c.r.Invoke(ctx, input)
}

// buildGraph: Retrieve → StuffDocuments → Generate → BuildResult
func (c *Chain) buildGraph(ctx context.Context) (compose.Runnable[string, *Result], error) {
	const (
		Retrieve       = "Retrieve"
		StuffDocuments = "StuffDocuments"
		Generate       = "Generate"
		BuildResult    = "BuildResult"
	)
	g := compose.NewGraph[string, *Result]()
	_ = g.AddLambdaNode(Retrieve, compose.InvokableLambdaWithOption(c.retrieveNode), compose.WithNodeName(Retrieve))
	_ = g.AddLambdaNode(StuffDocuments, compose.InvokableLambdaWithOption(c.stuffDocumentsNode), compose.WithNodeName(StuffDocuments))
	_ = g.AddLambdaNode(Generate, compose.InvokableLambdaWithOption(c.generateNode), compose.WithNodeName(Generate))
	_ = g.AddLambdaNode(BuildResult, compose.InvokableLambdaWithOption(c.buildResultNode), compose.WithNodeName(BuildResult))

	_ = g.AddEdge(compose.START, Retrieve)
	_ = g.AddEdge(Retrieve, StuffDocuments)
	_ = g.AddEdge(StuffDocuments, Generate)
	_ = g.AddEdge(Generate, BuildResult)
	_ = g.AddEdge(BuildResult, compose.END)

	return g.Compile(ctx, compose.WithGraphName("RAGChain"), compose.WithNodeTriggerMode(compose.AllPredecessor))
}

func (c *Chain) retrieveNode(ctx context.Context, input string, _ ...any) (*chainState, error) {
	st := &chainState{Input: input, Start: time.Now()}
	docs, err := c.retriever.Retrieve(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	st.Docs = docs
	st.RetrieveMs = time.Since(st.Start).Milliseconds()
	return st, nil
}

func (c *Chain) stuffDocumentsNode(ctx context.Context, st *chainState, _ ...any) (*chainState, error) {
	st.Context = StuffDocuments(st.Docs)
	msgs, err := c.template.Format(ctx, map[string]any{
		contextVar: st.Context,
		inputVar:   st.Input,
	})
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}
	st.Messages = msgs
	return st, nil
}

func (c *Chain) generateNode(ctx context.Context, st *chainState, _ ...any) (*chainState, error) {
	t := time.Now()
	msg, err := c.chatModel.Generate(ctx, st.Messages)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if msg == nil {
		return nil, errors.New("generate: empty response")
	}
	st.Answer = msg.Content
	st.GenerateMs = time.Since(t).Milliseconds()
	return st, nil
}

func (c *Chain) buildResultNode(_ context.Context, st *chainState, _ ...any) (*Result, error) {
	c.logger.Info("rag chain done",
		zap.Int("hits", len(st.Docs)),
		zap.Int64("retrieve_ms", st.RetrieveMs),
		zap.Int64("generate_ms", st.GenerateMs),
		zap.Int64("total_ms", time.Since(st.Start).Milliseconds()),
	)
	return &Result{Input: st.Input, Context: st.Docs, Answer: st.Answer}, nil
}

// StuffDocuments joins document contents with a blank line.
func StuffDocuments(docs []*schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}
