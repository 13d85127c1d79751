package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragchat/internal/config"
	"ragchat/internal/service"
)

type page int

const (
	pageChat page = iota
	pageAbout
)

const (
	stageInit     = "Initializing RAG pipeline..."
	stageGenerate = "Generating response..."
)

// Role of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the session chat history.
type Turn struct {
	Role    Role
	Content string
}

type pipelineReadyMsg struct {
	question string
	err      error
}

type answerMsg struct {
	answer string
	err    error
}

// Model is the Bubble Tea model for the chat dashboard. Each Model is one
// session and owns its own lazily built pipeline.
type Model struct {
	service   *service.RAGService
	about     config.AboutConfig
	logger    *zap.Logger
	sessionID string

	page     page
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	history  []Turn
	stage    string
	errMsg   string
	ready    bool
	width    int
}

// New creates a session. The factory runs on the first question.
func New(factory service.Factory, about config.AboutConfig, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	logger = logger.With(zap.String("session_id", id))

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask something and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		service: service.NewRAGService(service.Config{
			Pipeline: service.NewLazy(factory),
			Logger:   logger,
		}),
		about:     about,
		logger:    logger,
		sessionID: id,
		input:     ti,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) busy() bool { return m.stage != "" }

// Update handles key, window and pipeline events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, bh := historyBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+tabs, status, spacer
		vh := msg.Height - reserved - bh
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh)
		m.refreshHistory()
		return m, nil

	case pipelineReadyMsg:
		if msg.err != nil {
			m.logger.Error("pipeline init failed", zap.Error(msg.err))
			m.stage = ""
			m.errMsg = "Error initializing RAG: " + msg.err.Error()
			return m, nil
		}
		m.stage = stageGenerate
		return m, m.ask(msg.question)

	case answerMsg:
		m.stage = ""
		if msg.err != nil {
			m.logger.Error("request failed", zap.Error(msg.err))
			m.errMsg = "Error processing request: " + msg.err.Error()
			return m, nil
		}
		m.history = append(m.history, Turn{Role: RoleAssistant, Content: msg.answer})
		m.refreshHistory()
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.Type {
		case tea.KeyTab:
			if m.page == pageChat {
				m.page = pageAbout
			} else {
				m.page = pageChat
			}
			return m, nil
		case tea.KeyEnter:
			if m.page != pageChat || m.busy() {
				return m, nil
			}
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.errMsg = ""
			m.history = append(m.history, Turn{Role: RoleUser, Content: q})
			m.refreshHistory()
			if !m.service.Pipeline().Ready() {
				m.stage = stageInit
				return m, tea.Batch(m.spinner.Tick, m.initPipeline(q))
			}
			m.stage = stageGenerate
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	if m.page != pageChat {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) initPipeline(question string) tea.Cmd {
	lazy := m.service.Pipeline()
	return func() tea.Msg {
		_, err := lazy.Get(context.Background())
		return pipelineReadyMsg{question: question, err: err}
	}
}

func (m Model) ask(question string) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		res, err := svc.Ask(context.Background(), question)
		if err != nil {
			return answerMsg{err: err}
		}
		return answerMsg{answer: res.Answer}
	}
}

// View renders the current page.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render(m.about.Title) + "  " + m.renderTabs()
	if m.page == pageAbout {
		body := aboutStyle.Width(max(20, m.width-4)).Render(m.about.Body)
		return header + "\n\n" + body + "\n\n" + hintStyle.Render("Tab: switch page  Ctrl+C: quit")
	}
	history := historyBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	return header + "\n" + history + "\n" + input + "\n" + m.renderStatus()
}

func (m Model) renderTabs() string {
	chat, about := tabStyle.Render("Chatbot"), tabStyle.Render("About Me")
	if m.page == pageChat {
		chat = activeTabStyle.Render("Chatbot")
	} else {
		about = activeTabStyle.Render("About Me")
	}
	return about + " " + chat
}

func (m Model) renderStatus() string {
	switch {
	case m.busy():
		return m.spinner.View() + " " + m.stage
	case m.errMsg != "":
		return errorStyle.Render(m.errMsg)
	default:
		return hintStyle.Render("Enter: send  Tab: About Me  Ctrl+C: quit")
	}
}

func (m *Model) refreshHistory() {
	if len(m.history) == 0 {
		m.viewport.SetContent(hintStyle.Render("No messages yet."))
		return
	}
	width := max(20, m.viewport.Width-2)
	var b strings.Builder
	for i, t := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch t.Role {
		case RoleUser:
			b.WriteString(userLabelStyle.Render("You"))
		default:
			b.WriteString(assistantLabelStyle.Render("Assistant"))
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(t.Content))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

var (
	titleStyle          = lipgloss.NewStyle().Bold(true)
	tabStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	activeTabStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")).Padding(0, 1)
	historyBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	aboutStyle          = lipgloss.NewStyle().Padding(0, 2)
	userLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
