package ui

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/chat-widget/pkg/events"
	"github.com/go-go-golems/chat-widget/pkg/widget"
)

const (
	maxPanelWidth  = 72
	minPanelWidth  = 24
	statusLifetime = 2 * time.Second
)

type Option func(*Model)

func WithTitle(title string) Option {
	return func(m *Model) {
		if title != "" {
			m.title = title
		}
	}
}

func WithPlaceholder(placeholder string) Option {
	return func(m *Model) { m.input.Placeholder = placeholder }
}

func WithMarkdownStyle(style string) Option {
	return func(m *Model) { m.markdownStyle = style }
}

// WithStartOpen opens the panel as soon as the program starts.
func WithStartOpen(open bool) Option {
	return func(m *Model) { m.startOpen = open }
}

func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

func WithStyles(styles Styles) Option {
	return func(m *Model) { m.styles = styles }
}

func WithBackend(b *Backend) Option {
	return func(m *Model) {
		if b != nil {
			m.backend = b
		}
	}
}

// WithClipboard replaces the system clipboard, mostly for tests.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copy = write
		}
	}
}

type statusExpiredMsg struct{ id int }

// Model is the bubbletea front end of a widget.Widget: a launcher line while
// the panel is closed, and a bordered chat panel anchored to the bottom
// right corner while it is open.
type Model struct {
	w       *widget.Widget
	backend *Backend

	keys     KeyMap
	styles   Styles
	help     help.Model
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	md       *MarkdownRenderer

	title         string
	markdownStyle string
	startOpen     bool
	copy          func(string) error

	stats    events.Stats
	status   string
	statusID int

	width, height int
	quitting      bool
}

var _ tea.Model = (*Model)(nil)

func NewModel(w *widget.Widget, opts ...Option) *Model {
	input := textinput.New()
	input.Placeholder = widget.DefaultPlaceholder
	input.Prompt = "> "
	input.CharLimit = 2000

	m := &Model{
		w:        w,
		keys:     DefaultKeyMap(),
		styles:   DefaultStyles(),
		help:     help.New(),
		viewport: viewport.New(0, 0),
		input:    input,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		title:    widget.DefaultTitle,
		copy:     clipboard.WriteAll,
		width:    80,
		height:   24,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.backend == nil {
		m.backend = NewBackend(nil)
	}

	md, err := NewMarkdownRenderer(m.markdownStyle, maxPanelWidth)
	if err != nil {
		log.Warn().Str("component", "ui").Err(err).Msg("markdown disabled")
	}
	m.md = md

	if m.startOpen {
		m.w.SetVisible(true)
		m.input.Focus()
	}
	m.layout()
	return m
}

func (m *Model) Widget() *widget.Widget { return m.w }

func (m *Model) Stats() events.Stats { return m.stats }

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ResolvedMsg:
		m.w.Apply(msg.Resolution)
		m.refresh(true)
		return m, nil

	case EventMsg:
		m.stats.Apply(widget.Event(msg))
		return m, nil

	case spinner.TickMsg:
		if !m.w.Conversation().Sending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh(m.viewport.AtBottom())
		return m, cmd

	case statusExpiredMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.backend.Interrupt()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		if m.w.Toggle() {
			m.refresh(true)
			return m, m.input.Focus()
		}
		m.input.Blur()
		return m, nil
	}

	if !m.w.Visible() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Minimize):
		m.w.Minimize()
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Close):
		m.w.Close()
		m.input.Blur()
		m.input.SetValue(m.w.Conversation().Input())
		m.refresh(true)
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		m.w.SetInput(m.input.Value())
		ex := m.w.SubmitInput()
		if ex == nil {
			return m, nil
		}
		m.input.SetValue(m.w.Conversation().Input())
		m.refresh(true)
		return m, tea.Batch(m.backend.Start(ex), m.spinner.Tick)

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyLastAnswer()

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfPageUp()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDn):
		m.viewport.HalfPageDown()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.w.SetInput(m.input.Value())
	return m, cmd
}

func (m *Model) copyLastAnswer() tea.Cmd {
	reply, ok := m.w.Conversation().LastBotReply()
	if !ok {
		return m.setStatus("nothing to copy yet")
	}
	if err := m.copy(reply.Content); err != nil {
		log.Warn().Str("component", "ui").Err(err).Msg("could not copy to clipboard")
		return m.setStatus("clipboard unavailable")
	}
	return m.setStatus("answer copied")
}

func (m *Model) setStatus(s string) tea.Cmd {
	m.statusID++
	m.status = s
	id := m.statusID
	return tea.Tick(statusLifetime, func(time.Time) tea.Msg { return statusExpiredMsg{id: id} })
}

func (m *Model) panelWidth() int {
	w := m.width - 2
	if w > maxPanelWidth {
		w = maxPanelWidth
	}
	if w < minPanelWidth {
		w = minPanelWidth
	}
	return w
}

// layout sizes the viewport to whatever the chrome leaves over.
func (m *Model) layout() {
	pw := m.panelWidth()
	m.help.Width = pw

	chrome := 1 + 2 + 1 + lipgloss.Height(m.help.View(m.keys))
	vh := m.height - 2 - chrome
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = pw
	m.viewport.Height = vh
	m.input.Width = pw - lipgloss.Width(m.input.Prompt) - 1

	if m.md != nil {
		if err := m.md.SetWidth(pw - 4); err != nil {
			log.Debug().Str("component", "ui").Err(err).Msg("could not resize markdown renderer")
		}
	}
	m.refresh(true)
}

func (m *Model) refresh(bottom bool) {
	m.viewport.SetContent(m.renderMessages())
	if bottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderMessages() string {
	snap := m.w.Snapshot()
	pw := m.panelWidth()
	bubbleMax := pw * 3 / 4

	blocks := make([]string, 0, len(snap.Messages))
	for i, msg := range snap.Messages {
		switch {
		case !msg.IsBot():
			style := m.styles.UserBubble
			if lipgloss.Width(msg.Content)+2 > bubbleMax {
				style = style.Width(bubbleMax)
			}
			blocks = append(blocks, lipgloss.PlaceHorizontal(pw, lipgloss.Right, style.Render(msg.Content)))
		case snap.IsPending(i):
			blocks = append(blocks, m.styles.BotBubble.Render(m.spinner.View()))
		case msg.Failed:
			blocks = append(blocks, m.styles.ErrorText.Render(msg.Content))
		default:
			blocks = append(blocks, m.styles.BotBubble.Render(m.md.Render(msg.Content)))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.w.Visible() {
		launcher := m.styles.Launcher.Render("💬 " + m.title + "  " + m.keys.Toggle.Help().Key)
		return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Bottom, launcher)
	}

	pw := m.panelWidth()

	hint := m.styles.HeaderHint.Render("esc ▾  ctrl+x ✕")
	titleWidth := pw - lipgloss.Width(hint)
	if titleWidth < 0 {
		titleWidth = 0
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Header.Width(titleWidth).MaxHeight(1).Render(m.title),
		hint,
	)

	status := m.status
	if status == "" && m.stats.Started > 0 {
		status = m.stats.String()
	}

	panel := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.styles.Input.Width(pw).Render(m.input.View()),
		m.styles.Status.Width(pw).MaxHeight(1).Render(status),
		m.help.View(m.keys),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Bottom, m.styles.Panel.Render(panel))
}
