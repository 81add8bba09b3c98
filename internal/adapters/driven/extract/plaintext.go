package extract

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

// errBinary is returned when a text format receives binary data.
var errBinary = errors.New("content is not valid UTF-8 text")

// PlainText passes text files through unchanged.
type PlainText struct{}

// Name returns the format name.
func (PlainText) Name() string { return "plaintext" }

// Extensions returns the extensions handled.
func (PlainText) Extensions() []string {
	return []string{
		".txt", ".text", ".log", ".csv", ".tsv",
		".json", ".yaml", ".yml", ".toml", ".xml", ".ini",
		".go", ".py", ".rs", ".java", ".c", ".h", ".cpp", ".rb",
		".js", ".ts", ".sh", ".sql", ".css",
	}
}

// Extract validates data as UTF-8 and normalises line endings.
func (PlainText) Extract(data []byte) (string, error) {
	return decodeText(data)
}

// decodeText strips a UTF-8 BOM, rejects binary content and converts CRLF
// line endings to LF.
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return "", errBinary
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return text, nil
}
