// Package notebook parses Jupyter notebooks and diffs them cell by cell.
package notebook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zjrosen/diffnav/internal/log"
)

// Notebook is the subset of the nbformat document that diffing needs.
type Notebook struct {
	Cells         []Cell          `json:"cells"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	NBFormat      int             `json:"nbformat,omitempty"`
	NBFormatMinor int             `json:"nbformat_minor,omitempty"`
}

// Cell is one notebook cell.
type Cell struct {
	CellType       string          `json:"cell_type"`
	Source         MultiLine       `json:"source"`
	Outputs        []Output        `json:"outputs,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	ExecutionCount *int            `json:"execution_count,omitempty"`
}

// MultiLine is nbformat's "multiline string": either a plain string or a
// list of strings. It always holds the joined text.
type MultiLine string

// UnmarshalJSON accepts both encodings. List elements that already carry
// their newline are concatenated; otherwise they are joined with "\n".
func (m *MultiLine) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*m = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = MultiLine(s)
		return nil
	}

	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("multiline string: %w", err)
	}
	*m = MultiLine(joinLines(parts))
	return nil
}

func joinLines(parts []string) string {
	for i := 0; i < len(parts)-1; i++ {
		if !strings.HasSuffix(parts[i], "\n") {
			return strings.Join(parts, "\n")
		}
	}
	return strings.Join(parts, "")
}

// Parse decodes notebook JSON.
func Parse(data []byte) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("parsing notebook: %w", err)
	}
	return &nb, nil
}

// ParseOrNil decodes notebook JSON, treating malformed input as an absent
// notebook. label names the side in the log line.
func ParseOrNil(data []byte, label string) *Notebook {
	if data == nil {
		return nil
	}
	nb, err := Parse(data)
	if err != nil {
		log.Warn(log.CatNotebook, "Malformed notebook treated as absent", "side", label, "error", err)
		return nil
	}
	return nb
}

// canonicalJSON re-encodes raw JSON with sorted object keys so that two
// documents differing only in key order compare equal. Absent and empty
// objects are equivalent. Numbers keep their literal text.
func canonicalJSON(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return "{}"
	}

	v, err := decodeNumbers(trimmed)
	if err != nil {
		return string(trimmed)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return string(trimmed)
	}
	return string(out)
}

func canonicalIndent(raw json.RawMessage) string {
	v, err := decodeNumbers(raw)
	if err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// decodeNumbers decodes into json.Number rather than float64 so integers
// above 2^53 survive the round trip.
func decodeNumbers(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}
