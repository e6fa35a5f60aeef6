package tui

const (
	minFieldWidth          = 20
	minFieldHeight         = 3
	maxFieldHeight         = 20
	fieldHorizontalPadding = 4
	// header, border, controls, status and help lines around the field.
	fieldChrome = 9
)

type pageLayout struct {
	windowWidth  int
	windowHeight int
	fieldWidth   int
	fieldHeight  int
}

func newPageLayout() pageLayout {
	return pageLayout{
		fieldWidth:  60,
		fieldHeight: 6,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	l.fieldWidth = width - fieldHorizontalPadding
	if l.fieldWidth < minFieldWidth {
		l.fieldWidth = minFieldWidth
	}
	l.fieldHeight = height - fieldChrome
	if l.fieldHeight < minFieldHeight {
		l.fieldHeight = minFieldHeight
	}
	if l.fieldHeight > maxFieldHeight {
		l.fieldHeight = maxFieldHeight
	}
}

// contentWidth is the room left for text inside the padded field box.
func (l pageLayout) contentWidth() int {
	return l.fieldWidth - 2
}
