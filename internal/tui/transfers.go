package tui

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/csheth/convertfield/internal/convert"
)

type transferStatus string

const (
	transferStatusRunning   transferStatus = "running"
	transferStatusSucceeded transferStatus = "succeeded"
	transferStatusFailed    transferStatus = "failed"
	transferStatusCancelled transferStatus = "cancelled"
)

type transferSnapshot struct {
	ID          string
	Status      transferStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Bytes       int
	Err         string
}

// pendingTransfer is the cancellation handle for the in-flight request.
type pendingTransfer struct {
	id        string
	cancel    context.CancelFunc
	startedAt time.Time
	bytes     int
}

type transferOpenedMsg struct {
	id     string
	stream *convert.Stream
}

type transferChunkMsg struct {
	id     string
	stream *convert.Stream
	text   string
}

type transferDoneMsg struct {
	id string
}

type transferFailedMsg struct {
	id     string
	err    error
	opened bool
}

func startTransfer(inputLen int) (*pendingTransfer, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	pending := &pendingTransfer{
		id:        uuid.NewString(),
		cancel:    cancel,
		startedAt: time.Now(),
	}
	log.Printf("[transfer] %s %s (input=%d bytes)", pending.id, transferStatusRunning, inputLen)
	return pending, ctx
}

// finish releases the request context and records how the transfer ended.
func (p *pendingTransfer) finish(status transferStatus, err error) transferSnapshot {
	p.cancel()
	snapshot := transferSnapshot{
		ID:          p.id,
		Status:      status,
		StartedAt:   p.startedAt,
		CompletedAt: time.Now(),
		Bytes:       p.bytes,
	}
	if err != nil {
		snapshot.Err = err.Error()
	}
	snapshot.Duration = snapshot.CompletedAt.Sub(p.startedAt)
	log.Printf("[transfer] %s %s (duration=%s, bytes=%d, err=%v)", p.id, status, snapshot.Duration, p.bytes, err)
	return snapshot
}

func openTransferCmd(ctx context.Context, id string, converter Converter, text string) tea.Cmd {
	return func() tea.Msg {
		stream, err := converter.Open(ctx, text)
		if err != nil {
			return transferFailedMsg{id: id, err: err}
		}
		return transferOpenedMsg{id: id, stream: stream}
	}
}

// readChunkCmd pulls exactly one chunk; the model schedules the next read when
// it has applied this one.
func readChunkCmd(id string, stream *convert.Stream) tea.Cmd {
	return func() tea.Msg {
		text, err := stream.Next()
		if err == nil {
			return transferChunkMsg{id: id, stream: stream, text: text}
		}
		_ = stream.Close()
		if errors.Is(err, io.EOF) {
			return transferDoneMsg{id: id}
		}
		return transferFailedMsg{id: id, err: err, opened: true}
	}
}
