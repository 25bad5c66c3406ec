// Package report renders scoring results for humans and machines.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/clipscore/internal/domain/scoring"
)

// Format selects a renderer.
type Format string

// Supported formats.
const (
	JSON Format = "json"
	YAML Format = "yaml"
	Text Format = "text"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat maps a flag value onto a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, YAML, Text:
		return f, nil
	case "":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: %q (want json, yaml or text)", ErrUnknownFormat, s)
	}
}

// Options tune rendering.
type Options struct {
	// Pretty indents JSON output.
	Pretty bool
	// Color enables ANSI styling in text output.
	Color bool
	// Explain makes JSON and YAML emit the whole explanation: the result
	// plus the weighted rule trail of every dimension.
	Explain bool
}

// Write renders exp in format f. JSON and YAML emit only the result
// document unless opts.Explain is set; Text always shows the rule trail
// behind every subscore.
func Write(w io.Writer, f Format, exp scoring.Explanation, opts Options) error {
	var doc any = exp.Result
	if opts.Explain {
		doc = exp
	}
	switch f {
	case JSON:
		return writeJSON(w, doc, opts.Pretty)
	case YAML:
		return writeYAML(w, doc)
	case Text:
		_, err := io.WriteString(w, renderText(exp, opts.Color))
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// WriteJSONLine writes v as one JSON document followed by a newline.
func WriteJSONLine(w io.Writer, v any) error {
	return writeJSON(w, v, false)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
