package export

import (
	"encoding/json"
	"io"

	"semclass/internal/domain"
)

type rawEntry struct {
	File      string `json:"file"`
	Filename  string `json:"filename"`
	RawResult any    `json:"raw_result"`
}

// RawDump writes the unprocessed service responses. Structured payloads are embedded as is,
// text payloads as {"raw_response": ...} and failures as {"error": ...}.
func RawDump(w io.Writer, records []domain.RawRecord) error {
	entries := make([]rawEntry, 0, len(records))
	for i := range records {
		rec := &records[i]
		entries = append(entries, rawEntry{
			File:      rec.File,
			Filename:  rec.Filename,
			RawResult: rawResult(rec),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(entries)
}

func rawResult(rec *domain.RawRecord) any {
	switch {
	case rec.Payload == nil:
		return map[string]string{"error": rec.Error}
	case rec.Payload.Kind == domain.PayloadStructured && json.Valid(rec.Payload.Structured):
		return rec.Payload.Structured
	case rec.Payload.Kind == domain.PayloadText:
		return map[string]string{"raw_response": rec.Payload.Text}
	default:
		return map[string]string{"error": domain.ErrUnrecognizedPayload.Error()}
	}
}
