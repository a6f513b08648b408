// package formatter renders redirect reports as plain text, JSON or CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/uidx/internal/models"
	"github.com/desertthunder/uidx/internal/shared"
)

// Format names a report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatCSV}

// ParseFormat validates a format name, defaulting to text when empty.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, name)
	}
}

// ExportToText renders one "from -> to" line per redirect.
func ExportToText(redirects []models.Redirect) ([]byte, error) {
	var buf bytes.Buffer
	for _, r := range redirects {
		buf.WriteString(r.String())
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ExportToJSON renders redirects as an indented array of {"uid","from","to"} objects.
func ExportToJSON(redirects []models.Redirect) ([]byte, error) {
	if redirects == nil {
		redirects = []models.Redirect{}
	}
	data, err := shared.MarshalJSON(redirects, true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV renders redirects with columns: uid, from, to. Each source id gets its own row.
func ExportToCSV(redirects []models.Redirect) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"uid", "from", "to"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range redirects {
		to := strconv.Itoa(r.To)
		for _, from := range r.From {
			if err := writer.Write([]string{r.UId, strconv.Itoa(from), to}); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// Render encodes redirects in the given format.
func Render(redirects []models.Redirect, format Format) ([]byte, error) {
	switch format {
	case FormatText, "":
		return ExportToText(redirects)
	case FormatJSON:
		return ExportToJSON(redirects)
	case FormatCSV:
		return ExportToCSV(redirects)
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteReport writes the rendered report to w.
func WriteReport(w io.Writer, redirects []models.Redirect, format Format) error {
	data, err := Render(redirects, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteReportFile writes the rendered report to path, replacing any existing file.
func WriteReportFile(path string, redirects []models.Redirect, format Format) error {
	data, err := Render(redirects, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
