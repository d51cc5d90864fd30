// package formatter exports song batches to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/nunvibe/internal/models"
	"github.com/desertthunder/nunvibe/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Formats lists every supported format, in help-text order.
var Formats = []Format{FormatText, FormatCSV, FormatMarkdown, FormatJSON}

// ParseFormat resolves a format name. "md" and "txt" are accepted as aliases; empty means text.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// ExportToCSV converts a Batch to CSV format with columns: URI, Name, Artist
func ExportToCSV(batch models.Batch) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"URI", "Name", "Artist"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range batch.Songs {
		if err := writer.Write([]string{song.URI, song.Name, song.Artist}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Batch to a titled, numbered Markdown list.
//
// The title defaults to the batch kind.
func ExportToMarkdown(batch models.Batch, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = titleFor(batch.Kind)
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Songs**: %d\n\n", batch.Len())

	for i, song := range batch.Songs {
		fmt.Fprintf(&buf, "%d. %s - %s (`%s`)\n", i+1, song.Artist, song.Name, song.URI)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Batch to plain text format
func ExportToText(batch models.Batch) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s: %d\n\n", titleFor(batch.Kind), batch.Len())
	for i, song := range batch.Songs {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, song.Artist, song.Name)
		fmt.Fprintf(&buf, "   %s\n", song.URI)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a Batch to indented JSON.
func ExportToJSON(batch models.Batch) ([]byte, error) {
	if batch.Songs == nil {
		batch.Songs = []models.Song{}
	}
	data, err := shared.MarshalJSON(batch, true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders batch in the given format.
func Export(batch models.Batch, format Format, title string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(batch)
	case FormatMarkdown:
		return ExportToMarkdown(batch, title)
	case FormatJSON:
		return ExportToJSON(batch)
	case FormatText, "":
		return ExportToText(batch)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
}

// WriteExport renders batch and writes it to path, or to w when path is empty.
//
// Parent directories of path are created as needed. Returns the path written, empty for w.
func WriteExport(w io.Writer, batch models.Batch, format Format, title, path string) (string, error) {
	data, err := Export(batch, format, title)
	if err != nil {
		return "", err
	}

	if path == "" {
		if _, err := w.Write(data); err != nil {
			return "", fmt.Errorf("failed to write export: %w", err)
		}
		return "", nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

func titleFor(kind models.BatchKind) string {
	switch kind {
	case models.BatchSamples:
		return "Samples"
	case models.BatchRecommendations:
		return "Recommendations"
	default:
		return "Songs"
	}
}
