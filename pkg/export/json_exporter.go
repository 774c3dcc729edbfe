package export

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONExporter renders any JSON-serialisable value as an indented document.
type JSONExporter struct {
	indent string
}

// NewJSONExporter builds a JSON exporter using two-space indentation.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{indent: "  "}
}

// Render pretty-prints v. HTML characters are left unescaped so free text survives verbatim.
func (e *JSONExporter) Render(v interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", e.indent)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
