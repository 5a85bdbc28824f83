// Package tui provides the interactive chat tester: type as the user, watch
// the character reply and see each reply's scores.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/evaluate"
	"github.com/mwiater/manzai/internal/providers"
	"github.com/mwiater/manzai/internal/scenario"
	"github.com/mwiater/manzai/internal/util"
)

// viewState represents the current screen.
type viewState int

const (
	// viewLoadingChat waits for the model to be loaded.
	viewLoadingChat viewState = iota
	// viewChat is the conversation screen.
	viewChat
)

// exchange is one user line with the character's reply and its record.
type exchange struct {
	input  string
	reply  string
	record evaluate.Record
	failed bool
}

type model struct {
	ctx              context.Context
	cfg              *appconfig.Config
	session          *scenario.Session
	generator        providers.Generator
	host             appconfig.Host
	state            viewState
	isLoading        bool
	err              error
	textArea         textarea.Model
	viewport         viewport.Model
	spinner          spinner.Model
	exchanges        []exchange
	pending          string
	responseBuf      strings.Builder
	width, height    int
	program          *tea.Program
	requestStartTime time.Time
}

// chatReadyMsg reports the model is loaded.
type chatReadyMsg struct{}

// chatReadyErr reports the model could not be loaded.
type chatReadyErr struct{ error }

// streamChunkMsg carries one streamed increment of the current reply.
type streamChunkMsg string

// replyMsg ends a turn.
type replyMsg struct {
	record evaluate.Record
	err    error
}

// tickMsg refreshes the elapsed-time counter while waiting.
type tickMsg time.Time

func initialModel(ctx context.Context, cfg *appconfig.Config, g providers.Generator, session *scenario.Session) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ta := textarea.New()
	ta.Placeholder = "話しかけてみて..."
	ta.Focus()
	ta.Prompt = "You: "
	ta.ShowLineNumbers = false
	ta.CharLimit = -1
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	return &model{
		ctx:              ctx,
		cfg:              cfg,
		session:          session,
		generator:        g,
		host:             session.Host(),
		state:            viewLoadingChat,
		isLoading:        true,
		spinner:          s,
		textArea:         ta,
		viewport:         viewport.New(100, 5),
		requestStartTime: time.Now(),
	}
}

func loadModelCmd(ctx context.Context, g providers.Generator, host appconfig.Host, modelName string) tea.Cmd {
	return func() tea.Msg {
		if err := g.EnsureModelReady(ctx, host, modelName); err != nil {
			return chatReadyErr{error: err}
		}
		return chatReadyMsg{}
	}
}

// sendCmd runs one turn of the session. Chunks are forwarded to the program
// when one is attached; the finished record always arrives as replyMsg.
func (m *model) sendCmd(input string) tea.Cmd {
	ctx, session, program := m.ctx, m.session, m.program
	return func() tea.Msg {
		var onChunk func(string) error
		if program != nil {
			onChunk = func(chunk string) error {
				program.Send(streamChunkMsg(chunk))
				return nil
			}
		}
		rec, err := session.Send(ctx, input, onChunk)
		return replyMsg{record: rec, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadModelCmd(m.ctx, m.generator, m.host, m.session.Model()), tickCmd())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+r":
			if m.state == viewChat && !m.isLoading {
				m.session.Reset()
				m.exchanges = nil
				m.err = nil
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textArea.SetWidth(msg.Width - 3)
		headerHeight := 3
		footerHeight := 3
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)

	case chatReadyMsg:
		m.isLoading = false
		m.state = viewChat
		m.textArea.Focus()
		return m, nil

	case chatReadyErr:
		m.isLoading = false
		m.err = msg.error
		return m, nil

	case streamChunkMsg:
		m.responseBuf.WriteString(string(msg))
		m.viewport.GotoBottom()
		return m, nil

	case replyMsg:
		ex := exchange{input: m.pending, record: msg.record}
		if msg.err != nil {
			ex.failed = true
			ex.reply = msg.err.Error()
		} else {
			ex.reply = msg.record.Output
		}
		m.exchanges = append(m.exchanges, ex)
		m.pending = ""
		m.responseBuf.Reset()
		m.isLoading = false
		m.textArea.Focus()
		m.viewport.GotoBottom()
		return m, nil

	case tickMsg:
		if m.isLoading {
			return m, tickCmd()
		}
		return m, nil
	}

	if m.state == viewChat {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

		if !m.isLoading {
			m.textArea, cmd = m.textArea.Update(msg)
			cmds = append(cmds, cmd)
		}

		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" && !m.isLoading {
			input := strings.TrimSpace(m.textArea.Value())
			if input != "" {
				m.pending = input
				m.textArea.Reset()
				m.isLoading = true
				m.err = nil
				m.requestStartTime = time.Now()
				cmds = append(cmds, m.spinner.Tick, m.sendCmd(input), tickCmd())
			}
		}
	}

	if m.isLoading {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	if m.err != nil && m.state == viewLoadingChat {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1)
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	switch m.state {
	case viewLoadingChat:
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		return fmt.Sprintf("\n  %s Loading %s... %ss\n", m.spinner.View(), m.session.Model(), timer)
	case viewChat:
		return m.chatView()
	default:
		return "Unknown state"
	}
}

func (m *model) chatView() string {
	var b strings.Builder
	p := m.session.Profile()

	headerStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	labelStyle := lipgloss.NewStyle().Background(lipgloss.Color("0")).Foreground(lipgloss.Color("255")).Padding(0, 1)
	status := lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render(p.Name),
		headerStyle.Render(fmt.Sprintf("%s / %s", p.Role, p.ModelTier)),
		headerStyle.MarginLeft(1).Render("Host: "+providers.HostIdentifier(m.host)),
		headerStyle.MarginLeft(1).Render("Model: "+m.session.Model()),
		headerStyle.MarginLeft(1).Render(fmt.Sprintf("Stream: %t", m.cfg.Stream)),
	)
	help := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(" (ctrl+r to reset, esc to quit)")
	b.WriteString(status + help + "\n\n")

	m.viewport.SetContent(m.historyView(p.Name))
	b.WriteString(m.viewport.View())

	if m.isLoading {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		b.WriteString(fmt.Sprintf("\n%s %s is thinking... %ss", m.spinner.View(), p.Name, timer))
	} else {
		b.WriteString("\n" + m.textArea.View())
	}
	return b.String()
}

func (m *model) historyView(name string) string {
	userStyle := lipgloss.NewStyle().Bold(true)
	charStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	scoreStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	var hb strings.Builder
	line := func(role, content string) {
		wrapped := util.WrapWidth(content, max(m.width-lipgloss.Width(role)-2, 10))
		hb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, role, wrapped) + "\n")
	}

	for _, ex := range m.exchanges {
		line(userStyle.Render("You: "), ex.input)
		if ex.failed {
			line(errStyle.Render(name+": "), "error: "+ex.reply)
			continue
		}
		line(charStyle.Render(name+": "), ex.reply)
		hb.WriteString(scoreStyle.Render("  >>> "+formatScores(ex.record)) + "\n")
	}
	if m.pending != "" {
		line(userStyle.Render("You: "), m.pending)
		if m.responseBuf.Len() > 0 {
			line(charStyle.Render(name+": "), m.responseBuf.String())
		}
	}
	return hb.String()
}

func formatScores(r evaluate.Record) string {
	s := fmt.Sprintf("[cons %.1f | len %.1f | style %.1f | qual %.1f | total %.2f] %dms",
		r.Scores.CharacterConsistency,
		r.Scores.LengthCompliance,
		r.Scores.StyleAccuracy,
		r.Scores.ResponseQuality,
		r.Scores.Overall,
		r.LatencyMs,
	)
	if len(r.Issues) > 0 {
		s += " " + strings.Join(r.Issues, "; ")
	}
	return s
}

// Run opens the chat screen for session and blocks until the user quits.
// Records gathered during the conversation are returned.
func Run(ctx context.Context, cfg *appconfig.Config, g providers.Generator, session *scenario.Session) ([]evaluate.Record, error) {
	m := initialModel(ctx, cfg, g, session)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.program = p
	if _, err := p.Run(); err != nil {
		return session.Records(), err
	}
	return session.Records(), nil
}
