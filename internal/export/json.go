package export

import (
	"encoding/json"
	"io"

	"semclass/internal/domain"
)

func writeJSON(w io.Writer, outcomes []domain.ItemOutcome) error {
	if outcomes == nil {
		outcomes = []domain.ItemOutcome{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(outcomes)
}
