package parser

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"semclass/internal/domain"
)

// Tag names recognized in a classification response. Matching is case-insensitive.
const (
	tagDocumentURL = "url"
	tagCategory    = "meta"
	tagSystem      = "system"
)

// Fields is the flat output of a FieldScanner, in document order.
type Fields struct {
	DocumentURL *string
	Scored      []domain.ScoredRecord
	System      []domain.SystemRecord
}

// FieldScanner turns response markup into typed fields. Implementations must not fail:
// anything they do not recognize is skipped.
type FieldScanner interface {
	Scan(text string) Fields
}

// MarkupScanner is a FieldScanner over the tag soup returned by the classification service.
type MarkupScanner struct{}

// Scan tokenizes text and collects URL, META and SYSTEM tags.
func (MarkupScanner) Scan(text string) Fields {
	var out Fields
	z := html.NewTokenizer(strings.NewReader(text))

	var (
		inURL   bool
		urlText strings.Builder
	)

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way the input is exhausted
			if inURL {
				u := urlText.String()
				out.DocumentURL = &u
			}
			return out

		case html.StartTagToken, html.SelfClosingTagToken:
			// the payload is XML: <title>, <script> and friends hold markup, not raw text
			z.NextIsNotRawText()
			name, hasAttr := z.TagName()
			attrs := readAttrs(z, hasAttr)
			switch string(name) {
			case tagDocumentURL:
				if out.DocumentURL == nil && !inURL {
					inURL = true
					urlText.Reset()
				}
			case tagCategory:
				if rec, ok := scoredRecord(attrs); ok {
					out.Scored = append(out.Scored, rec)
				}
			case tagSystem:
				if rec, ok := systemRecord(attrs); ok {
					out.System = append(out.System, rec)
				}
			}

		case html.TextToken:
			if inURL {
				urlText.Write(z.Text())
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if inURL && string(name) == tagDocumentURL {
				u := urlText.String()
				out.DocumentURL = &u
				inURL = false
			}
		}
	}
}

// readAttrs copies tag attributes out of the tokenizer's reused buffers.
func readAttrs(z *html.Tokenizer, more bool) map[string]string {
	if !more {
		return nil
	}
	attrs := make(map[string]string)
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		k := string(key)
		if _, seen := attrs[k]; !seen {
			attrs[k] = string(val)
		}
	}
	return attrs
}

func scoredRecord(attrs map[string]string) (domain.ScoredRecord, bool) {
	name, value := attrs["name"], attrs["value"]
	if name == "" || value == "" {
		return domain.ScoredRecord{}, false
	}
	rec := domain.ScoredRecord{Category: name, Value: value}
	if id, ok := attrs["id"]; ok && id != "" {
		rec.ID = &id
	}
	if raw, ok := attrs["score"]; ok {
		rec.Score = ParseScore(raw)
	}
	return rec, true
}

func systemRecord(attrs map[string]string) (domain.SystemRecord, bool) {
	name, value := attrs["name"], attrs["value"]
	if name == "" || value == "" {
		return domain.SystemRecord{}, false
	}
	return domain.SystemRecord{Name: name, Value: value}, true
}

// ParseScore parses a textual score. Empty, non-numeric and non-finite values yield nil.
func ParseScore(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
