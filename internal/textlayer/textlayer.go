// Package textlayer converts settlement documents into the plain text the
// extraction rules run over. Extractors preserve line structure: the rule
// set is line-anchored, so a text layer that reflows lines breaks it.
package textlayer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Extractor produces the text layer of one document.
type Extractor interface {
	Extract(r io.Reader, filename string) (string, error)
}

// SupportedExtensions lists file extensions the pipeline can ingest.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".pdf":  true,
	".docx": true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string, fallbackPdftotext bool) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{FallbackPdftotext: fallbackPdftotext}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// normalize unifies line endings and page breaks so downstream rules only
// ever see \n.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")
	return text
}
