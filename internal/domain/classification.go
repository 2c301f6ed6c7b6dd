package domain

import (
	"bytes"
	"encoding/json"
)

// RawPayload is one response body from the classification service, as handed over by the
// transport. Exactly one of Structured or Text is meaningful, depending on Kind.
type RawPayload struct {
	Kind       PayloadKind
	Structured json.RawMessage
	Text       string
}

// NewStructuredPayload wraps a decoded JSON response.
func NewStructuredPayload(body json.RawMessage) RawPayload {
	return RawPayload{Kind: PayloadStructured, Structured: body}
}

// NewTextPayload wraps a response body that could not be interpreted as JSON.
func NewTextPayload(text string) RawPayload {
	return RawPayload{Kind: PayloadText, Text: text}
}

// ServiceError returns the top-level "error" message of a structured payload, or "".
func (p RawPayload) ServiceError() string {
	if p.Kind != PayloadStructured || len(p.Structured) == 0 {
		return ""
	}
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(p.Structured, &envelope); err != nil || len(envelope.Error) == 0 {
		return ""
	}
	var msg string
	if err := json.Unmarshal(envelope.Error, &msg); err == nil {
		return msg
	}
	if string(envelope.Error) == "null" {
		return ""
	}
	return string(envelope.Error)
}

// ScoredRecord is one category tag of a classification response.
type ScoredRecord struct {
	Category string   `json:"-"`
	Value    string   `json:"value"`
	ID       *string  `json:"id"`
	Score    *float64 `json:"score"`
}

// SystemRecord is an unscored informational tag of a classification response.
type SystemRecord struct {
	Name  string
	Value string
}

// Categories maps category names to their records, remembering first-seen order.
type Categories struct {
	order   []string
	records map[string][]ScoredRecord
}

// NewCategories creates an empty Categories.
func NewCategories() *Categories {
	return &Categories{records: make(map[string][]ScoredRecord)}
}

// Append adds rec under rec.Category.
func (c *Categories) Append(rec ScoredRecord) {
	if _, ok := c.records[rec.Category]; !ok {
		c.order = append(c.order, rec.Category)
	}
	c.records[rec.Category] = append(c.records[rec.Category], rec)
}

// Names returns the category names in first-seen order.
func (c *Categories) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Records returns the records of one category in extraction order.
func (c *Categories) Records(name string) []ScoredRecord {
	if c == nil {
		return nil
	}
	return c.records[name]
}

// Len returns the number of distinct categories.
func (c *Categories) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// MarshalJSON writes the categories as an object whose keys keep first-seen order.
func (c *Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range c.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.records[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParsedResult is the uniform shape produced from any payload.
type ParsedResult struct {
	DocumentURL *string           `json:"document_url"`
	Categories  *Categories       `json:"classifications"`
	SystemInfo  map[string]string `json:"system_info"`
	RawPayload  string            `json:"raw_xml,omitempty"`
	Structured  json.RawMessage   `json:"structured,omitempty"`
}

// RankedTopic is one distinct topic surfaced to the user.
type RankedTopic struct {
	Topic string  `json:"topic"`
	Score float64 `json:"score"`
}

// CategorizedTopic is a scored record flattened across categories.
type CategorizedTopic struct {
	Category string  `json:"category"`
	Value    string  `json:"value"`
	Score    float64 `json:"score"`
	ID       *string `json:"id"`
}
