package notebook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// OutputKind is the variant tag of an Output.
type OutputKind int

const (
	OutputUnknown OutputKind = iota
	OutputStream             // stream: stdout/stderr text
	OutputData               // execute_result / display_data: mime bundle
	OutputError              // error: exception with traceback
)

func (k OutputKind) String() string {
	switch k {
	case OutputStream:
		return "stream"
	case OutputData:
		return "data"
	case OutputError:
		return "error"
	default:
		return "unknown"
	}
}

// Output is a cell output. Kind selects which fields are meaningful:
// Stream uses Name and Text, Data uses Data, Error uses EName, EValue and
// Traceback. Raw keeps the original JSON for comparison and re-encoding.
type Output struct {
	Kind       OutputKind
	OutputType string

	Name string
	Text string

	Data map[string]json.RawMessage

	EName     string
	EValue    string
	Traceback []string

	Raw json.RawMessage
}

type outputJSON struct {
	OutputType string                     `json:"output_type"`
	Name       string                     `json:"name"`
	Text       MultiLine                  `json:"text"`
	Data       map[string]json.RawMessage `json:"data"`
	EName      string                     `json:"ename"`
	EValue     string                     `json:"evalue"`
	Traceback  []string                   `json:"traceback"`
}

// UnmarshalJSON decodes an output and tags its variant by output_type.
func (o *Output) UnmarshalJSON(data []byte) error {
	var raw outputJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("notebook output: %w", err)
	}

	*o = Output{
		OutputType: raw.OutputType,
		Raw:        append(json.RawMessage(nil), data...),
	}

	switch raw.OutputType {
	case "stream":
		o.Kind = OutputStream
		o.Name = raw.Name
		o.Text = string(raw.Text)
	case "execute_result", "display_data":
		o.Kind = OutputData
		o.Data = raw.Data
	case "error":
		o.Kind = OutputError
		o.EName = raw.EName
		o.EValue = raw.EValue
		o.Traceback = raw.Traceback
	default:
		o.Kind = OutputUnknown
	}
	return nil
}

// MarshalJSON writes the original JSON back.
func (o Output) MarshalJSON() ([]byte, error) {
	if len(o.Raw) == 0 {
		return []byte("{}"), nil
	}
	return o.Raw, nil
}

// Render produces the text used to line-diff an output: stream text as-is,
// a mime bundle via its text/plain entry (else canonical JSON), an error via
// its traceback with terminal escapes removed.
func (o Output) Render() string {
	switch o.Kind {
	case OutputStream:
		return o.Text
	case OutputData:
		if plain, ok := o.Data["text/plain"]; ok {
			var text MultiLine
			if err := json.Unmarshal(plain, &text); err == nil {
				return string(text)
			}
		}
		bundle, err := json.Marshal(o.Data)
		if err != nil {
			return canonicalIndent(o.Raw)
		}
		return canonicalIndent(bundle)
	case OutputError:
		if len(o.Traceback) == 0 {
			return o.EName + ": " + o.EValue
		}
		lines := make([]string, len(o.Traceback))
		for i, l := range o.Traceback {
			lines[i] = ansi.Strip(l)
		}
		return strings.Join(lines, "\n")
	default:
		return canonicalIndent(o.Raw)
	}
}

// renderOutputs joins the rendering of every output, one block per output.
func renderOutputs(outputs []Output) string {
	if len(outputs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, o := range outputs {
		text := o.Render()
		b.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
