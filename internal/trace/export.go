// internal/trace/export.go
package trace

import (
	"fmt"
	"io"

	json "github.com/json-iterator/go"
)

// Document is the exported form of a trace.
type Document struct {
	Session  string  `json:"session,omitempty"`
	Platform string  `json:"platform,omitempty"`
	URL      string  `json:"url,omitempty"`
	Entries  []Entry `json:"entries"`
}

// Export writes the trace as indented JSON.
func Export(w io.Writer, doc Document) error {
	if doc.Entries == nil {
		doc.Entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}
	return nil
}

// Import reads a trace written by Export.
func Import(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode trace: %w", err)
	}
	return doc, nil
}
