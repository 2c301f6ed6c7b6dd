package parser_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semclass/internal/domain"
	"semclass/internal/parser"
)

func TestExtract_TextPayload(t *testing.T) {
	pr, err := parser.Extract(domain.NewTextPayload(sampleResponse))
	require.NoError(t, err)

	assert.Equal(t, []string{"Generic_UPWARD", "Type", "Generic"}, pr.Categories.Names())
	upward := pr.Categories.Records("Generic_UPWARD")
	require.Len(t, upward, 2)
	assert.Equal(t, "Audit", upward[0].Value)
	assert.Equal(t, "Tax & Duties", upward[1].Value)
	assert.Equal(t, "English1", pr.SystemInfo["Language"])
	assert.Equal(t, sampleResponse, pr.RawPayload)
}

func TestExtract_TextPayload_Empty(t *testing.T) {
	pr, err := parser.Extract(domain.NewTextPayload(""))
	require.NoError(t, err)

	assert.Nil(t, pr.DocumentURL)
	assert.Equal(t, 0, pr.Categories.Len())
	assert.Empty(t, pr.SystemInfo)
}

func TestExtract_UnknownPayload(t *testing.T) {
	pr, err := parser.Extract(domain.RawPayload{})

	assert.Nil(t, pr)
	assert.ErrorIs(t, err, domain.ErrUnrecognizedPayload)
}

func TestExtract_StructuredPayload_Opaque(t *testing.T) {
	body := json.RawMessage(`{"status":"ok","items":[1,2,3]}`)

	pr, err := parser.Extract(domain.NewStructuredPayload(body))
	require.NoError(t, err)

	assert.Equal(t, 0, pr.Categories.Len())
	assert.Empty(t, pr.SystemInfo)
	assert.JSONEq(t, string(body), string(pr.Structured))
}

func TestExtract_StructuredPayload_NotAnObject(t *testing.T) {
	pr, err := parser.Extract(domain.NewStructuredPayload(json.RawMessage(`[1,2]`)))
	require.NoError(t, err)
	assert.Equal(t, 0, pr.Categories.Len())
}

func TestExtract_StructuredPayload_ParsedShapeKeepsKeyOrder(t *testing.T) {
	body := json.RawMessage(`{
		"document_info": {"url": "https://example.org/a"},
		"classifications": {
			"Zeta": [{"value": "Z1", "id": null, "score": 0.5}],
			"Alpha": [{"value": "A1", "id": "a", "score": "0.7"}, {"value": "A2", "score": null}],
			"Broken": "not a list"
		},
		"system_info": {"Template": "default", "Count": 3}
	}`)

	pr, err := parser.Extract(domain.NewStructuredPayload(body))
	require.NoError(t, err)

	require.NotNil(t, pr.DocumentURL)
	assert.Equal(t, "https://example.org/a", *pr.DocumentURL)
	assert.Equal(t, []string{"Zeta", "Alpha"}, pr.Categories.Names())

	alpha := pr.Categories.Records("Alpha")
	require.Len(t, alpha, 2)
	require.NotNil(t, alpha[0].Score)
	assert.Equal(t, 0.7, *alpha[0].Score)
	assert.Nil(t, alpha[1].Score)

	assert.Equal(t, map[string]string{"Template": "default"}, pr.SystemInfo)
}

type stubScanner struct{ fields parser.Fields }

func (s stubScanner) Scan(string) parser.Fields { return s.fields }

func TestExtractor_UsesInjectedScanner(t *testing.T) {
	score := 1.0
	e := parser.NewExtractor(stubScanner{fields: parser.Fields{
		Scored: []domain.ScoredRecord{{Category: "C", Value: "V", Score: &score}},
	}})

	pr, err := e.Extract(domain.NewTextPayload("ignored"))
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, pr.Categories.Names())
}
