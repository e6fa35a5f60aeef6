package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// StdinPath selects standard input as the text source.
const StdinPath = "-"

var extraneousWhitespace = regexp.MustCompile(`[ \t]{2,}`)

// Load returns the text stored at path. PDFs are reduced to their plain text,
// anything else is read verbatim. StdinPath reads from stdin.
func Load(path string, stdin io.Reader) (string, error) {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return "", errors.New("source: path is required")
	case path == StdinPath:
		if stdin == nil {
			return "", errors.New("source: stdin unavailable")
		}
		return Read(stdin)
	case strings.EqualFold(filepath.Ext(path), ".pdf"):
		return loadPDF(path)
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("source: read %s: %w", path, err)
		}
		return string(raw), nil
	}
}

// Read drains r into a string.
func Read(r io.Reader) (string, error) {
	var builder strings.Builder
	if _, err := io.Copy(&builder, r); err != nil {
		return "", fmt.Errorf("source: read input: %w", err)
	}
	return builder.String(), nil
}

func loadPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("source: open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("source: extract pdf text: %w", err)
	}
	text, err := Read(content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(extraneousWhitespace.ReplaceAllString(text, " ")), nil
}
