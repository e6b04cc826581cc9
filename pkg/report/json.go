package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// Formatter renders reports and standalone recommendations.
type Formatter interface {
	Format(w io.Writer, report *interfaces.Report) error
	FormatRecommendation(w io.Writer, rec *interfaces.Recommendation) error
}

// ForName returns the formatter for terminal, json or markdown.
func ForName(name string) (Formatter, error) {
	switch name {
	case "", "terminal":
		return NewTerminalFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "markdown", "md":
		return NewMarkdownFormatter(), nil
	default:
		return nil, fmt.Errorf("report: unknown format %q", name)
	}
}

// JSONFormatter writes reports as indented JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON report formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the report as indented JSON to the given writer.
func (f *JSONFormatter) Format(w io.Writer, report *interfaces.Report) error {
	return encode(w, report)
}

// FormatRecommendation writes the recommendation as indented JSON.
func (f *JSONFormatter) FormatRecommendation(w io.Writer, rec *interfaces.Recommendation) error {
	return encode(w, rec)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("report: encoding json: %w", err)
	}
	return nil
}
