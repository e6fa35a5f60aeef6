package tui

import "time"

const (
	errorText     = "Error fetching data"
	cancelledText = "Cancelled by user"
)

const (
	defaultTickInterval = 500 * time.Millisecond
	// dotCycle is the number of ellipsis states: "", ".", "..", "...".
	dotCycle = 4
)

const fieldPlaceholder = "Type text to convert…"

const timeRounding = time.Millisecond

type control int

const (
	focusField control = iota
	focusConvert
	focusClear
	focusCancel
)

func (c control) String() string {
	switch c {
	case focusField:
		return "field"
	case focusConvert:
		return "convert"
	case focusClear:
		return "clear"
	case focusCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

type dotTickMsg struct {
	gen int
}
