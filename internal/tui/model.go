package tui

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/convertfield/internal/convert"
)

// Converter opens a streamed conversion of text.
type Converter interface {
	Open(ctx context.Context, text string) (*convert.Stream, error)
}

// Config wires runtime options into the TUI program.
type Config struct {
	Converter    Converter
	Endpoint     string
	TickInterval time.Duration
	InitialText  string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.TickInterval <= 0 {
		config.TickInterval = defaultTickInterval
	}

	field := textarea.New()
	field.Placeholder = fieldPlaceholder
	field.ShowLineNumbers = false
	field.CharLimit = 0
	field.MaxHeight = 0
	field.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j"))
	field.SetValue(config.InitialText)
	field.Focus()

	layout := newPageLayout()
	field.SetWidth(layout.contentWidth())
	field.SetHeight(layout.fieldHeight)

	m := &model{
		config:      config,
		field:       field,
		help:        help.New(),
		keys:        newKeyMap(),
		layout:      layout,
		focus:       focusField,
		displayText: config.InitialText,
	}
	m.keys.sync(false)
	return m
}

type model struct {
	config Config
	field  textarea.Model
	help   help.Model
	keys   keyMap
	layout pageLayout
	focus  control

	displayText string
	isLoading   bool
	dotCount    int
	pending     *pendingTransfer
	// tickGen invalidates indicator ticks scheduled by earlier transfers.
	tickGen int

	lastTransfer *transferSnapshot
	infoMessage  string
}

func (m *model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case dotTickMsg:
		return m, m.handleTick(msg)
	case transferOpenedMsg:
		return m, m.handleOpened(msg)
	case transferChunkMsg:
		return m, m.handleChunk(msg)
	case transferDoneMsg:
		return m, m.handleDone(msg)
	case transferFailedMsg:
		return m, m.handleFailed(msg)
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.field.SetWidth(m.layout.contentWidth())
		m.field.SetHeight(m.layout.fieldHeight)
		m.help.Width = msg.Width
		return m, nil
	}
	if m.focus == focusField && !m.isLoading {
		var cmd tea.Cmd
		m.field, cmd = m.field.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.Close()
		return tea.Quit
	}
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.cancelTransfer()
		return nil
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Convert):
		return m.convert()
	case key.Matches(msg, m.keys.Clear):
		return m.clear()
	case key.Matches(msg, m.keys.Next):
		return m.moveFocus(1)
	case key.Matches(msg, m.keys.Prev):
		return m.moveFocus(-1)
	case key.Matches(msg, m.keys.Activate):
		return m.activate()
	}
	if m.focus != focusField || m.isLoading {
		return nil
	}
	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	m.displayText = m.field.Value()
	return cmd
}

func (m *model) activate() tea.Cmd {
	switch m.focus {
	case focusField, focusConvert:
		return m.convert()
	case focusClear:
		return m.clear()
	case focusCancel:
		m.cancelTransfer()
	}
	return nil
}

// controls lists the focusable controls in tab order for the current state.
func (m *model) controls() []control {
	if m.isLoading {
		return []control{focusCancel}
	}
	return []control{focusField, focusConvert, focusClear}
}

func (m *model) moveFocus(delta int) tea.Cmd {
	available := m.controls()
	idx := 0
	for i, c := range available {
		if c == m.focus {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(available)) % len(available)
	return m.setFocus(available[idx])
}

func (m *model) setFocus(target control) tea.Cmd {
	m.focus = target
	if target == focusField && !m.isLoading {
		return m.field.Focus()
	}
	m.field.Blur()
	return nil
}

func (m *model) convert() tea.Cmd {
	if m.isLoading {
		return nil
	}
	if m.config.Converter == nil {
		m.infoMessage = "No conversion endpoint configured."
		return nil
	}
	text := m.displayText
	pending, ctx := startTransfer(len(text))
	m.pending = pending
	m.displayText = ""
	m.field.Reset()
	m.isLoading = true
	m.dotCount = 0
	m.tickGen++
	m.infoMessage = ""
	m.keys.sync(true)
	m.setFocus(focusCancel)
	return tea.Batch(
		openTransferCmd(ctx, pending.id, m.config.Converter, text),
		m.tickCmd(),
	)
}

func (m *model) clear() tea.Cmd {
	if m.pending != nil {
		m.endTransfer(transferStatusCancelled, convert.ErrAborted)
	}
	m.displayText = ""
	m.field.Reset()
	m.infoMessage = ""
	return m.setFocus(focusField)
}

func (m *model) cancelTransfer() {
	if !m.isLoading || m.pending == nil {
		return
	}
	log.Printf("[transfer] %s cancel requested", m.pending.id)
	m.displayText = cancelledText
	m.endTransfer(transferStatusCancelled, convert.ErrAborted)
}

// endTransfer is the single exit for every terminal path: it drops the
// pending handle, clears the loading state and stops the indicator.
func (m *model) endTransfer(status transferStatus, err error) {
	if m.pending != nil {
		snapshot := m.pending.finish(status, err)
		m.lastTransfer = &snapshot
	}
	m.pending = nil
	m.isLoading = false
	m.dotCount = 0
	m.tickGen++
	m.keys.sync(false)
	m.field.SetValue(m.displayText)
	m.setFocus(focusField)
}

// Close aborts any transfer still in flight. The program calls it on exit.
func (m *model) Close() {
	if m.pending == nil {
		return
	}
	m.endTransfer(transferStatusCancelled, convert.ErrAborted)
}

func (m *model) owns(id string) bool {
	return m.pending != nil && m.pending.id == id
}

func (m *model) tickCmd() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(m.config.TickInterval, func(time.Time) tea.Msg {
		return dotTickMsg{gen: gen}
	})
}

func (m *model) handleTick(msg dotTickMsg) tea.Cmd {
	if !m.isLoading || msg.gen != m.tickGen {
		return nil
	}
	m.dotCount = (m.dotCount + 1) % dotCycle
	return m.tickCmd()
}

func (m *model) handleOpened(msg transferOpenedMsg) tea.Cmd {
	if !m.owns(msg.id) {
		_ = msg.stream.Close()
		return nil
	}
	return readChunkCmd(msg.id, msg.stream)
}

func (m *model) handleChunk(msg transferChunkMsg) tea.Cmd {
	if !m.owns(msg.id) {
		_ = msg.stream.Close()
		return nil
	}
	m.displayText += msg.text
	m.pending.bytes += len(msg.text)
	return readChunkCmd(msg.id, msg.stream)
}

func (m *model) handleDone(msg transferDoneMsg) tea.Cmd {
	if !m.owns(msg.id) {
		return nil
	}
	m.endTransfer(transferStatusSucceeded, nil)
	return nil
}

func (m *model) handleFailed(msg transferFailedMsg) tea.Cmd {
	if !m.owns(msg.id) {
		if convert.IsAborted(msg.err) {
			log.Printf("[transfer] %s aborted", msg.id)
		} else {
			log.Printf("[transfer] %s ignored late error: %v", msg.id, msg.err)
		}
		return nil
	}

	var transferErr *convert.TransferError
	switch {
	case convert.IsAborted(msg.err):
		log.Printf("[transfer] %s aborted", msg.id)
		m.displayText = cancelledText
		m.endTransfer(transferStatusCancelled, msg.err)
	case errors.As(msg.err, &transferErr) || !msg.opened:
		m.displayText = errorText
		m.endTransfer(transferStatusFailed, msg.err)
	default:
		// Mid-stream failures keep whatever already arrived.
		log.Printf("[transfer] %s read failed: %v", msg.id, msg.err)
		m.endTransfer(transferStatusFailed, msg.err)
	}
	return nil
}
