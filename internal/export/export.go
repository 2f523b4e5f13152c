// Package export writes the loaded lead snapshot as JSONL and ships it to
// one or more destinations (a local file, an S3-compatible bucket).
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// header is the first JSONL record written by WriteJSONL.
type header struct {
	Version   string      `json:"version"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	LeadCount int         `json:"lead_count"`
	Stats     model.Stats `json:"stats"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string     `json:"type"`
	Data model.Lead `json:"data"`
}

// WriteJSONL writes a header line followed by one line per lead, sorted by
// id. The input slice is not modified.
func WriteJSONL(leads []model.Lead, w io.Writer) error {
	sorted := append([]model.Lead(nil), leads...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		Timestamp: time.Now().UTC(),
		LeadCount: len(sorted),
		Stats:     model.Tally(sorted),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, l := range sorted {
		if err := enc.Encode(record{Type: "lead", Data: l}); err != nil {
			return fmt.Errorf("encode lead %s: %w", l.ID, err)
		}
	}
	return nil
}
