package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cpulvermacher/claudechat/internal/chat"
	"github.com/cpulvermacher/claudechat/internal/claude"
	"github.com/cpulvermacher/claudechat/internal/clipboard"
	"github.com/cpulvermacher/claudechat/internal/config"
	"github.com/cpulvermacher/claudechat/internal/credentials"
	"github.com/cpulvermacher/claudechat/internal/prompt"
	"github.com/cpulvermacher/claudechat/internal/ratelimit"
	"github.com/cpulvermacher/claudechat/internal/report"
	"github.com/cpulvermacher/claudechat/internal/validation"
)

type Mode int

const (
	// ModeCredential asks for the API key on first run.
	ModeCredential Mode = iota
	// ModeChat is the main prompt/response loop.
	ModeChat
	// ModeHelp shows the key bindings.
	ModeHelp
)

// createRateLimiter creates a rate limiter from config, or returns nil if disabled
func createRateLimiter(cfg *config.Config) *ratelimit.RateLimiter {
	if !cfg.RateLimitEnabled {
		return nil
	}
	maxRequests := cfg.RateLimitRequests
	if maxRequests <= 0 {
		maxRequests = 60 // Default
	}
	windowSeconds := cfg.RateLimitWindow
	if windowSeconds <= 0 {
		windowSeconds = 60 // Default: per minute
	}
	return ratelimit.New(maxRequests, time.Duration(windowSeconds)*time.Second, 100*time.Millisecond)
}

type Model struct {
	// State
	mode        Mode
	transcript  string
	lastReply   string
	isStreaming bool
	cancelled   bool
	status      string
	errText     string

	// UI components
	view     viewport.Model
	input    textarea.Model
	keyInput textinput.Model

	// Services
	handler *chat.Handler
	creds   *credentials.Store
	config  *config.Config

	// In-flight request plumbing
	events chan tea.Msg
	cancel context.CancelFunc

	// Dimensions
	width  int
	height int
}

// Messages
type streamChunkMsg struct {
	chunk string
}

type errShownMsg struct {
	message string
}

type chatDoneMsg struct {
	result chat.Result
	state  chat.State
}

// chanSink forwards reported errors into the Bubble Tea event loop.
type chanSink struct {
	ch chan<- tea.Msg
}

func (s chanSink) ShowError(message string) {
	s.ch <- errShownMsg{message: message}
}

func NewModel(cfg *config.Config) (*Model, error) {
	creds := credentials.NewStore(cfg, nil)
	limiter := createRateLimiter(cfg)

	factory := func(apiKey string) (chat.Completer, error) {
		return claude.New(apiKey, cfg.Model, cfg.MaxTokens, limiter)
	}
	handler := chat.NewHandler(creds, factory, report.New(nil))

	input := textarea.New()
	input.Placeholder = "Ask Claude anything..."
	input.CharLimit = 0
	input.SetWidth(80)
	input.SetHeight(3)
	input.Focus()

	keyInput := textinput.New()
	keyInput.Placeholder = "sk-ant-..."
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.CharLimit = 0
	keyInput.Width = 60

	vp := viewport.New(80, 20)

	mode := ModeChat
	if cfg.APIKey == "" {
		mode = ModeCredential
		keyInput.Focus()
		input.Blur()
	}

	return &Model{
		mode:     mode,
		view:     vp,
		input:    input,
		keyInput: keyInput,
		handler:  handler,
		creds:    creds,
		config:   cfg,
		status:   "Ready. Enter to send, Esc to cancel, F1 for help",
	}, nil
}

func (m Model) Init() tea.Cmd {
	if m.mode == ModeCredential {
		return textinput.Blink
	}
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentWidth := msg.Width - 4
		if contentWidth < 20 {
			contentWidth = 20
		}
		viewHeight := msg.Height - 10
		if viewHeight < 5 {
			viewHeight = 5
		}
		m.view.Width = contentWidth
		m.view.Height = viewHeight
		m.input.SetWidth(contentWidth)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeCredential:
			return m.handleCredentialMode(msg)
		case ModeHelp:
			if msg.Type == tea.KeyEsc || msg.String() == "q" || msg.Type == tea.KeyF1 {
				m.mode = ModeChat
				return m, nil
			}
			return m, nil
		default:
			return m.handleChatMode(msg)
		}

	case streamChunkMsg:
		m.transcript += msg.chunk
		m.lastReply += msg.chunk
		m.view.SetContent(m.transcript)
		m.view.GotoBottom()
		return m, waitForChat(m.events)

	case errShownMsg:
		m.errText = msg.message
		return m, waitForChat(m.events)

	case chatDoneMsg:
		m.isStreaming = false
		m.cancel = nil
		m.events = nil
		m.transcript += "\n\n"
		m.view.SetContent(m.transcript)
		m.view.GotoBottom()
		switch {
		case m.cancelled:
			m.cancelled = false
			m.status = "Cancelled"
		case msg.state == chat.StateCompleted:
			m.status = "✓ Done"
			if m.config.AutoCopy && m.lastReply != "" {
				if err := clipboard.Copy(m.lastReply); err == nil {
					m.status = "✓ Done (copied)"
				}
			}
		default:
			m.status = "✗ Request failed"
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleCredentialMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		entered := strings.TrimSpace(m.keyInput.Value())
		if err := validation.ValidateAPIKey(entered); err != nil {
			m.errText = err.Error()
			return m, nil
		}
		if err := m.creds.Set(entered); err != nil {
			m.errText = fmt.Sprintf("failed to store API key: %v", err)
			return m, nil
		}
		m.errText = ""
		m.mode = ModeChat
		m.keyInput.Blur()
		m.input.Focus()
		m.status = "Key saved. Ready."
		return m, textarea.Blink
	case tea.KeyEsc, tea.KeyCtrlC:
		// Cancelling key entry means no authenticated call can proceed.
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m Model) handleChatMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case tea.KeyEsc:
		if m.isStreaming && m.cancel != nil {
			// Stop the in-flight request; no further chunks will arrive.
			m.cancel()
			m.cancelled = true
			m.status = "Cancelling..."
			return m, nil
		}
		return m, tea.Quit
	case tea.KeyF1:
		m.mode = ModeHelp
		return m, nil
	case tea.KeyCtrlY:
		if m.lastReply != "" {
			if err := clipboard.Copy(m.lastReply); err != nil {
				m.status = fmt.Sprintf("Failed to copy: %v", err)
			} else {
				m.status = "✓ Copied last reply"
			}
		}
		return m, nil
	case tea.KeyCtrlV:
		if pasted, err := clipboard.Paste(); err == nil && pasted != "" {
			m.input.InsertString(pasted)
		}
		return m, nil
	case tea.KeyEnter:
		if m.isStreaming {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			// Nothing to send; not an error.
			return m, nil
		}
		if err := validation.ValidatePrompt(text); err != nil {
			m.errText = err.Error()
			return m, nil
		}
		m.input.Reset()
		return m.startChat(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startChat runs the handler in the background and bridges transcript
// chunks, reported errors and the terminal result into the event loop.
func (m Model) startChat(text string) (tea.Model, tea.Cmd) {
	m.errText = ""
	m.lastReply = ""
	m.isStreaming = true
	m.status = "[●] Thinking..."
	m.transcript += "❯ " + text + "\n\n"
	m.view.SetContent(m.transcript)
	m.view.GotoBottom()

	ch := make(chan tea.Msg, 16)
	ctx, cancel := context.WithCancel(context.Background())
	m.events = ch
	m.cancel = cancel

	handler := m.handler
	go func() {
		defer close(ch)
		result := handler.Handle(ctx, prompt.Text(text), func(chunk string) {
			ch <- streamChunkMsg{chunk: chunk}
		}, chanSink{ch: ch})
		ch <- chatDoneMsg{result: result, state: handler.State()}
	}()

	return m, waitForChat(ch)
}

// waitForChat delivers the next in-flight request event to Update.
func waitForChat(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) View() string {
	if m.width == 0 {
		m.width = 80
	}
	if m.height == 0 {
		m.height = 24
	}

	switch m.mode {
	case ModeCredential:
		return m.renderCredential()
	case ModeHelp:
		return m.renderHelp()
	}
	return m.renderChat()
}

func (m Model) renderCredential() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("6")).
		Render("claudechat — first run")

	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render("Paste your Anthropic API key (input is hidden). Enter to save, Esc to quit.")

	var s strings.Builder
	s.WriteString(title)
	s.WriteString("\n\n")
	s.WriteString(hint)
	s.WriteString("\n\n")
	s.WriteString(m.keyInput.View())
	s.WriteString("\n")
	if m.errText != "" {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
		s.WriteString("\n" + errStyle.Render("✗ "+m.errText) + "\n")
	}
	return s.String()
}

func (m Model) renderHelp() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("6")).
		Render("Key bindings")

	lines := []string{
		"",
		"Enter    send prompt",
		"Esc      cancel in-flight request / quit",
		"Ctrl+Y   copy last reply",
		"Ctrl+V   paste into the prompt",
		"F1       toggle this help",
		"Ctrl+C   quit",
		"",
		"Esc or q to close help",
	}
	return title + "\n" + strings.Join(lines, "\n")
}

func (m Model) renderChat() string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("6")).
		Padding(0, 1)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Padding(0, 1)

	header := headerStyle.Render("claudechat") + statusStyle.Render(m.config.Model)

	status := statusStyle.Render(m.status)
	if m.errText != "" {
		errStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Padding(0, 1)
		status = errStyle.Render("✗ " + m.errText)
	}

	var s strings.Builder
	s.WriteString(header)
	s.WriteString("\n")
	s.WriteString(strings.Repeat("─", m.width))
	s.WriteString("\n")
	s.WriteString(m.view.View())
	s.WriteString("\n")
	s.WriteString(strings.Repeat("─", m.width))
	s.WriteString("\n")
	s.WriteString(m.input.View())
	s.WriteString("\n")
	s.WriteString(status)
	return s.String()
}

func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	model, err := NewModel(cfg)
	if err != nil {
		return fmt.Errorf("failed to create UI: %w", err)
	}

	p := tea.NewProgram(*model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("UI error: %w", err)
	}
	return nil
}
