// Package chaintest provides in-memory retriever and chat model fakes.
package chaintest

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

// Retriever returns Docs for every query, or Err.
type Retriever struct {
	Docs []*schema.Document
	Err  error

	mu      sync.Mutex
	queries []string
}

func (r *Retriever) Retrieve(_ context.Context, query string, _ ...retriever.Option) ([]*schema.Document, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Docs, nil
}

func (r *Retriever) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

// ChatModel answers every prompt with Answer, or fails with Err.
type ChatModel struct {
	Answer string
	Err    error

	mu   sync.Mutex
	last []*schema.Message
	n    int
}

func (m *ChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.last = input
	m.n++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return schema.AssistantMessage(m.Answer, nil), nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// LastPrompt returns the messages of the most recent Generate call.
func (m *ChatModel) LastPrompt() []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *ChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}

// Docs builds documents from plain texts.
func Docs(texts ...string) []*schema.Document {
	out := make([]*schema.Document, len(texts))
	for i, t := range texts {
		out[i] = &schema.Document{ID: t, Content: t}
	}
	return out
}
