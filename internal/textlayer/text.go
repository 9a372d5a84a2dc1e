package textlayer

import (
	"bufio"
	"io"
	"strings"
)

// TextExtractor handles plain text files, including text layers dumped by
// external tools for fixtures and tests.
type TextExtractor struct{}

func (e *TextExtractor) Extract(r io.Reader, filename string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var buf strings.Builder
	for scanner.Scan() {
		buf.WriteString(strings.TrimRight(scanner.Text(), " \t"))
		buf.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return normalize(buf.String()), nil
}
