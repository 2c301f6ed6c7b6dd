package parser

import (
	"bytes"
	"encoding/json"
	"strings"

	"semclass/internal/domain"
)

// Extractor turns a RawPayload into a ParsedResult.
type Extractor struct {
	scanner FieldScanner
}

// NewExtractor creates an Extractor using scanner for text payloads. A nil scanner selects
// MarkupScanner.
func NewExtractor(scanner FieldScanner) *Extractor {
	if scanner == nil {
		scanner = MarkupScanner{}
	}
	return &Extractor{scanner: scanner}
}

var defaultExtractor = NewExtractor(nil)

// Extract runs the default Extractor.
func Extract(raw domain.RawPayload) (*domain.ParsedResult, error) {
	return defaultExtractor.Extract(raw)
}

// Extract never fails on missing or malformed fields. It only returns
// domain.ErrUnrecognizedPayload when raw is neither structured nor text.
func (e *Extractor) Extract(raw domain.RawPayload) (*domain.ParsedResult, error) {
	switch raw.Kind {
	case domain.PayloadStructured:
		return fromStructured(raw.Structured), nil
	case domain.PayloadText:
		return Normalize(e.scanner.Scan(raw.Text), raw.Text), nil
	default:
		return nil, domain.ErrUnrecognizedPayload
	}
}

// structuredShape is the already-parsed layout some deployments answer with.
type structuredShape struct {
	DocumentInfo *struct {
		URL *string `json:"url"`
	} `json:"document_info"`
	Classifications json.RawMessage            `json:"classifications"`
	SystemInfo      map[string]json.RawMessage `json:"system_info"`
}

type structuredRecord struct {
	Value string          `json:"value"`
	ID    *string         `json:"id"`
	Score json.RawMessage `json:"score"`
}

func fromStructured(body json.RawMessage) *domain.ParsedResult {
	pr := &domain.ParsedResult{
		Categories: domain.NewCategories(),
		SystemInfo: map[string]string{},
		Structured: body,
	}

	var shape structuredShape
	if err := json.Unmarshal(body, &shape); err != nil {
		return pr
	}
	if shape.DocumentInfo != nil {
		pr.DocumentURL = shape.DocumentInfo.URL
	}
	for name, raw := range shape.SystemInfo {
		var v string
		if err := json.Unmarshal(raw, &v); err == nil {
			pr.SystemInfo[name] = v
		}
	}
	if len(shape.Classifications) > 0 {
		decodeCategories(shape.Classifications, pr.Categories)
	}
	return pr
}

// decodeCategories walks the object token by token so categories keep their JSON key order.
func decodeCategories(raw json.RawMessage, cats *domain.Categories) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		name, ok := tok.(string)
		if !ok {
			return
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return
		}
		var items []structuredRecord
		if err := json.Unmarshal(value, &items); err != nil {
			continue
		}
		for _, it := range items {
			if it.Value == "" {
				continue
			}
			cats.Append(domain.ScoredRecord{
				Category: name,
				Value:    it.Value,
				ID:       it.ID,
				Score:    structuredScore(it.Score),
			})
		}
	}
}

func structuredScore(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseScore(s)
	}
	return ParseScore(strings.TrimSpace(string(raw)))
}
