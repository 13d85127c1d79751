package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ragchat/internal/chain"
	"ragchat/internal/chain/chaintest"
	"ragchat/internal/config"
)

// run executes cmd and feeds resulting messages back into the model until
// nothing is left. Spinner ticks are dropped.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case spinner.TickMsg:
		default:
			next, nextCmd := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nextCmd)
		}
	}
	return m
}

func send(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return run(t, next.(Model), cmd)
}

func newSized(factory func(context.Context) (*chain.Chain, error)) Model {
	m := New(factory, config.AboutConfig{Title: "Portfolio", Body: "About the author."}, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func answering(answer string, builds *int) func(context.Context) (*chain.Chain, error) {
	return func(ctx context.Context) (*chain.Chain, error) {
		*builds++
		return chain.New(ctx, &chaintest.Retriever{Docs: chaintest.Docs("ctx")},
			chain.NewChatTemplate("{context}"), &chaintest.ChatModel{Answer: answer}, nil)
	}
}

func TestModel_ConversationBuildsPipelineOnce(t *testing.T) {
	builds := 0
	m := newSized(answering("Mocked answer.", &builds))

	m = send(t, m, "Who are you?")
	m = send(t, m, "What do you do?")

	if builds != 1 {
		t.Errorf("expected one pipeline build per session, got %d", builds)
	}
	want := []Turn{
		{RoleUser, "Who are you?"},
		{RoleAssistant, "Mocked answer."},
		{RoleUser, "What do you do?"},
		{RoleAssistant, "Mocked answer."},
	}
	if len(m.history) != len(want) {
		t.Fatalf("expected %d turns, got %+v", len(want), m.history)
	}
	for i := range want {
		if m.history[i] != want[i] {
			t.Errorf("turn %d: expected %+v, got %+v", i, want[i], m.history[i])
		}
	}
	if m.busy() || m.errMsg != "" {
		t.Errorf("unexpected state stage=%q err=%q", m.stage, m.errMsg)
	}
}

func TestModel_SessionsDoNotSharePipeline(t *testing.T) {
	builds := 0
	factory := answering("a", &builds)
	send(t, newSized(factory), "q")
	send(t, newSized(factory), "q")
	if builds != 2 {
		t.Errorf("expected one build per session, got %d", builds)
	}
}

func TestModel_InitErrorShownInline(t *testing.T) {
	m := newSized(func(context.Context) (*chain.Chain, error) {
		return nil, errors.New("missing index")
	})
	m = send(t, m, "hello")

	if m.errMsg != "Error initializing RAG: missing index" {
		t.Errorf("unexpected error message %q", m.errMsg)
	}
	for _, turn := range m.history {
		if turn.Role == RoleAssistant {
			t.Error("error must not be added to history")
		}
	}
	if !strings.Contains(m.View(), "Error initializing RAG: missing index") {
		t.Error("error not rendered")
	}
}

func TestModel_RequestErrorShownInlineAndSessionContinues(t *testing.T) {
	cm := &chaintest.ChatModel{Err: errors.New("rate limited")}
	m := newSized(func(ctx context.Context) (*chain.Chain, error) {
		return chain.New(ctx, &chaintest.Retriever{}, chain.NewChatTemplate("{context}"), cm, nil)
	})
	m = send(t, m, "hello")
	if !strings.HasPrefix(m.errMsg, "Error processing request: ") || !strings.Contains(m.errMsg, "rate limited") {
		t.Errorf("unexpected error message %q", m.errMsg)
	}

	cm.Err = nil
	cm.Answer = "recovered"
	m = send(t, m, "again")
	if m.errMsg != "" {
		t.Errorf("error should clear on next question, got %q", m.errMsg)
	}
	last := m.history[len(m.history)-1]
	if last.Role != RoleAssistant || last.Content != "recovered" {
		t.Errorf("unexpected last turn %+v", last)
	}
}

func TestModel_EmptyInputIgnored(t *testing.T) {
	builds := 0
	m := newSized(answering("a", &builds))
	m = send(t, m, "   ")
	if len(m.history) != 0 || builds != 0 || m.busy() {
		t.Errorf("blank input must be ignored: %+v", m.history)
	}
}

func TestModel_TabSwitchesPages(t *testing.T) {
	m := newSized(answering("a", new(int)))
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.page != pageAbout || !strings.Contains(m.View(), "About the author.") {
		t.Errorf("expected About page, got %q", m.View())
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if next.(Model).page != pageChat {
		t.Error("expected Chatbot page after second Tab")
	}
}
