package tui

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/convertfield/internal/convert"
)

func newTestModel(t *testing.T, endpoint string) *model {
	t.Helper()
	teaModel, ok := New(Config{
		Converter:    convert.New(convert.Config{Endpoint: endpoint}),
		Endpoint:     endpoint,
		TickInterval: time.Millisecond,
	}).(*model)
	if !ok {
		t.Fatalf("expected *model, got %T", teaModel)
	}
	return teaModel
}

func streamingServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, chunk := range chunks {
			_, _ = io.WriteString(w, chunk)
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// stallingServer sends its chunks and then holds the response open until the
// client goes away.
func stallingServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, chunk := range chunks {
			_, _ = io.WriteString(w, chunk)
			w.(http.Flusher).Flush()
		}
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)
	return server
}

func typeText(m *model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func isTransferMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case transferOpenedMsg, transferChunkMsg, transferDoneMsg, transferFailedMsg:
		return true
	}
	return false
}

// step runs cmd, feeds the transfer message it yields into the model and
// returns the follow-up command. Indicator ticks are dropped.
func step(t *testing.T, m *model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var follow []tea.Cmd
		for _, sub := range msg {
			if sub == nil {
				continue
			}
			if next := step(t, m, sub); next != nil {
				follow = append(follow, next)
			}
		}
		return tea.Batch(follow...)
	default:
		if !isTransferMsg(msg) {
			return nil
		}
		_, next := m.Update(msg)
		return next
	}
}

// pump drives a transfer until no follow-up command remains.
func pump(t *testing.T, m *model, cmd tea.Cmd) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for cmd != nil {
		if time.Now().After(deadline) {
			t.Fatal("transfer did not settle")
		}
		cmd = step(t, m, cmd)
	}
}

func TestConvertClearsFieldAndBlocksEdits(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1/api/convert")
	typeText(m, "hello")
	if m.displayText != "hello" {
		t.Fatalf("typed text not captured, got %q", m.displayText)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("convert should return transfer commands")
	}
	if !m.isLoading {
		t.Fatal("convert should mark the field loading")
	}
	if m.displayText != "" {
		t.Fatalf("field should be cleared on submit, got %q", m.displayText)
	}
	if m.pending == nil {
		t.Fatal("pending transfer missing while loading")
	}

	typeText(m, "more")
	if m.displayText != "" {
		t.Fatalf("field should not be editable while loading, got %q", m.displayText)
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS}); cmd != nil {
		t.Fatal("convert should be disabled while loading")
	}
	m.Close()
}

func TestEnterOnFieldStartsConvert(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1/api/convert")
	typeText(m, "hi")
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd == nil {
		t.Fatal("enter on the field should start a transfer")
	}
	if !m.isLoading {
		t.Fatal("enter should start loading")
	}
	m.Close()
}

func TestStreamedChunksAssemble(t *testing.T) {
	server := streamingServer(t, "AB", "CD", "EF")
	m := newTestModel(t, server.URL)
	typeText(m, "input")

	pump(t, m, m.convert())

	if m.displayText != "ABCDEF" {
		t.Fatalf("assembled text mismatch, got %q", m.displayText)
	}
	if m.isLoading {
		t.Fatal("loading should clear once the stream ends")
	}
	if m.pending != nil {
		t.Fatal("pending transfer should be dropped after completion")
	}
	if m.dotCount != 0 {
		t.Fatalf("dot count should reset, got %d", m.dotCount)
	}
	if m.field.Value() != "ABCDEF" {
		t.Fatalf("field should hold the result for editing, got %q", m.field.Value())
	}
	if m.lastTransfer == nil || m.lastTransfer.Status != transferStatusSucceeded || m.lastTransfer.Bytes != 6 {
		t.Fatalf("unexpected transfer snapshot: %#v", m.lastTransfer)
	}
}

func TestFailureStatusShowsErrorText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()
	m := newTestModel(t, server.URL)
	typeText(m, "input")

	pump(t, m, m.convert())

	if m.displayText != errorText {
		t.Fatalf("expected %q, got %q", errorText, m.displayText)
	}
	if m.isLoading {
		t.Fatal("loading should clear after an error status")
	}
	if !m.keys.Convert.Enabled() || !m.keys.Clear.Enabled() {
		t.Fatal("convert and clear should be enabled again")
	}
	if m.keys.Cancel.Enabled() {
		t.Fatal("cancel should be hidden once idle")
	}
}

func TestUnreachableEndpointShowsErrorText(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	m := newTestModel(t, endpoint)
	typeText(m, "input")
	pump(t, m, m.convert())

	if m.displayText != errorText {
		t.Fatalf("expected %q, got %q", errorText, m.displayText)
	}
	if m.isLoading {
		t.Fatal("loading should clear when the request cannot be sent")
	}
}

func TestCancelDiscardsPartialOutput(t *testing.T) {
	server := stallingServer(t, "AB")
	m := newTestModel(t, server.URL)
	typeText(m, "input")

	next := step(t, m, m.convert())
	for m.displayText != "AB" {
		if next == nil {
			t.Fatalf("stream ended early with %q", m.displayText)
		}
		next = step(t, m, next)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.displayText != cancelledText {
		t.Fatalf("expected %q, got %q", cancelledText, m.displayText)
	}
	if m.isLoading || m.pending != nil {
		t.Fatal("cancel should clear loading and the pending transfer")
	}

	// The blocked read observes the abort and reports it; the field keeps the status.
	pump(t, m, next)
	if m.displayText != cancelledText {
		t.Fatalf("late abort overwrote the field: %q", m.displayText)
	}
	if m.lastTransfer == nil || m.lastTransfer.Status != transferStatusCancelled {
		t.Fatalf("unexpected transfer snapshot: %#v", m.lastTransfer)
	}
}

func TestStaleChunksNeverTouchField(t *testing.T) {
	server := stallingServer(t, "AB")
	m := newTestModel(t, server.URL)
	typeText(m, "input")

	next := step(t, m, m.convert())
	m.cancelTransfer()

	// The pending read belongs to the cancelled transfer and must be ignored.
	pump(t, m, next)
	if m.displayText != cancelledText {
		t.Fatalf("stale transfer wrote into the field: %q", m.displayText)
	}

	m.Update(transferDoneMsg{id: "someone-else"})
	m.Update(transferFailedMsg{id: "someone-else", err: errors.New("late"), opened: true})
	if m.displayText != cancelledText || m.isLoading {
		t.Fatalf("stale messages changed state: text=%q loading=%v", m.displayText, m.isLoading)
	}
}

func TestMidStreamFailureClearsLoading(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1/api/convert")
	typeText(m, "input")
	m.convert()
	id := m.pending.id
	m.displayText = "partial"

	m.Update(transferFailedMsg{id: id, err: errors.New("connection reset"), opened: true})

	if m.isLoading || m.pending != nil {
		t.Fatal("read failure should clear loading")
	}
	if m.displayText != "partial" {
		t.Fatalf("read failure should keep received text, got %q", m.displayText)
	}
	if m.dotCount != 0 {
		t.Fatalf("dot count should reset, got %d", m.dotCount)
	}
}

func TestDotCountCyclesWhileLoading(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1/api/convert")
	m.convert()

	want := []int{1, 2, 3, 0, 1}
	for i, expected := range want {
		_, cmd := m.Update(dotTickMsg{gen: m.tickGen})
		if cmd == nil {
			t.Fatalf("tick %d should reschedule the indicator", i)
		}
		if m.dotCount != expected {
			t.Fatalf("tick %d: dot count %d, want %d", i, m.dotCount, expected)
		}
	}
	if got := m.renderedText(); got != "." {
		t.Fatalf("rendered text should carry one dot, got %q", got)
	}
	if strings.Contains(m.displayText, ".") {
		t.Fatal("dots must not be stored in the display text")
	}

	gen := m.tickGen
	m.cancelTransfer()
	if m.dotCount != 0 {
		t.Fatalf("dot count should be 0 once idle, got %d", m.dotCount)
	}
	if _, cmd := m.Update(dotTickMsg{gen: gen}); cmd != nil {
		t.Fatal("ticks from a finished transfer must not reschedule")
	}
	if m.dotCount != 0 {
		t.Fatalf("stale tick advanced the indicator: %d", m.dotCount)
	}
}

func TestClearWhileIdle(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1/api/convert")
	typeText(m, "something")

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})

	if m.displayText != "" || m.field.Value() != "" {
		t.Fatalf("clear should empty the field, got %q", m.displayText)
	}
	if m.isLoading {
		t.Fatal("clear should leave loading false")
	}
}

func TestClearCancelsPendingTransfer(t *testing.T) {
	server := stallingServer(t, "AB")
	m := newTestModel(t, server.URL)
	typeText(m, "input")
	next := step(t, m, m.convert())

	m.clear()
	if m.isLoading || m.pending != nil {
		t.Fatal("clear should abort a pending transfer")
	}

	pump(t, m, next)
	if m.displayText != "" {
		t.Fatalf("aborted transfer wrote into the cleared field: %q", m.displayText)
	}
}

func TestFocusCycle(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1/api/convert")
	if m.focus != focusField {
		t.Fatalf("field should start focused, got %v", m.focus)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusConvert {
		t.Fatalf("tab should move to convert, got %v", m.focus)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusClear {
		t.Fatalf("tab should move to clear, got %v", m.focus)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focus != focusField {
		t.Fatalf("shift+tab should return to the field, got %v", m.focus)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeText(m, "ignored")
	if m.displayText != "" {
		t.Fatalf("typing on a button should not edit the field, got %q", m.displayText)
	}

	m.convert()
	if m.focus != focusCancel {
		t.Fatalf("cancel should take focus while loading, got %v", m.focus)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.isLoading || m.displayText != cancelledText {
		t.Fatal("enter on cancel should abort the transfer")
	}
	if m.focus != focusField {
		t.Fatalf("field should regain focus after the transfer ends, got %v", m.focus)
	}
}

func TestViewShowsCancelOnlyWhileLoading(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1/api/convert")
	if strings.Contains(m.View(), "Cancel") {
		t.Fatal("cancel should be hidden while idle")
	}

	m.convert()
	m.displayText = "AB"
	m.dotCount = 2
	view := m.View()
	if !strings.Contains(view, "Cancel") {
		t.Fatal("cancel should be visible while loading")
	}
	if !strings.Contains(view, "AB..") {
		t.Fatalf("loading view should render the ellipsis:\n%s", view)
	}
	m.Close()
}

func TestCtrlCAbortsAndQuits(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1/api/convert")
	m.convert()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c should return tea.Quit")
	}
	if m.pending != nil || m.isLoading {
		t.Fatal("quitting should abort the pending transfer")
	}
}

func TestMissingConverterReportsMessage(t *testing.T) {
	m := New(Config{}).(*model)
	if cmd := m.convert(); cmd != nil {
		t.Fatal("convert without a converter should not start a transfer")
	}
	if m.isLoading {
		t.Fatal("convert without a converter should stay idle")
	}
	if m.infoMessage == "" {
		t.Fatal("expected a hint about the missing endpoint")
	}
}
