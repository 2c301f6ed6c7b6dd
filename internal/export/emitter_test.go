package export_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"semclass/internal/domain"
	"semclass/internal/export"
)

func sampleOutcomes() []domain.ItemOutcome {
	return []domain.ItemOutcome{
		domain.NewSuccessOutcome("dir/a.pdf", "a.pdf", []domain.RankedTopic{
			{Topic: "Tax", Score: 80},
			{Topic: "Audit", Score: 71.3},
		}),
		domain.NewFailedOutcome("dir/b.pdf", "b.pdf", errors.New("connection refused")),
		domain.NewSuccessOutcome("dir/c.pdf", "c.pdf", []domain.RankedTopic{{Topic: "Law", Score: 55}}),
		domain.NewSuccessOutcome("dir/d.pdf", "", nil),
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestEmit_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Emit(&buf, sampleOutcomes(), export.Options{Format: domain.FormatJSON}))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 4)

	assert.Equal(t, "dir/a.pdf", got[0]["file"])
	assert.Equal(t, "a.pdf", got[0]["filename"])
	assert.Nil(t, got[0]["error"])
	assert.Equal(t, []any{
		map[string]any{"topic": "Tax", "score": 80.0},
		map[string]any{"topic": "Audit", "score": 71.3},
	}, got[0]["classifications"])

	assert.Equal(t, "connection refused", got[1]["error"])
	assert.Equal(t, []any{}, got[1]["classifications"])
	assert.Equal(t, []any{}, got[3]["classifications"])
}

func TestEmit_JSONEmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Emit(&buf, nil, export.Options{Format: domain.FormatJSON}))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestEmit_WideCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Emit(&buf, sampleOutcomes(), export.Options{
		Format:           domain.FormatCSV,
		Mode:             domain.TabularWide,
		IdentifierHeader: "assetId",
		TopicHeader:      "dc:subject",
		IncludeScores:    true,
	}))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"assetId", "error", "dc:subject", "dc:subject"}, rows[0])
	assert.Equal(t, []string{"a.pdf", "", "Tax", "Audit"}, rows[1])
	assert.Equal(t, []string{"b.pdf", "connection refused", "", ""}, rows[2])
	assert.Equal(t, []string{"c.pdf", "", "Law", ""}, rows[3])
	assert.Equal(t, []string{"dir/d.pdf", "", "", ""}, rows[4])
	for _, row := range rows {
		assert.Len(t, row, 2+2)
	}
}

func TestEmit_WideCSVAllFailed(t *testing.T) {
	outcomes := []domain.ItemOutcome{
		domain.NewFailedOutcome("a", "a.pdf", errors.New("boom")),
	}

	var buf bytes.Buffer
	require.NoError(t, export.Emit(&buf, outcomes, export.Options{Format: domain.FormatCSV}))

	rows := readCSV(t, buf.Bytes())
	assert.Equal(t, [][]string{{"identifier", "error"}, {"a.pdf", "boom"}}, rows)
}

func TestEmit_WideCSVWithBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Emit(&buf, sampleOutcomes(), export.Options{Format: domain.FormatCSV, BOM: true}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), export.BOM))
}

func TestEmit_LongCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Emit(&buf, sampleOutcomes(), export.Options{
		Format:        domain.FormatCSV,
		Mode:          domain.TabularLong,
		IncludeScores: true,
	}))

	rows := readCSV(t, buf.Bytes())
	assert.Equal(t, [][]string{
		{"identifier", "error", "topic", "score"},
		{"a.pdf", "", "Tax", "80"},
		{"a.pdf", "", "Audit", "71.3"},
		{"b.pdf", "connection refused", "", ""},
		{"c.pdf", "", "Law", "55"},
		{"dir/d.pdf", "", "", ""},
	}, rows)
}

func TestEmit_LongCSVWithoutScores(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Emit(&buf, sampleOutcomes()[:1], export.Options{
		Format: domain.FormatCSV,
		Mode:   domain.TabularLong,
	}))

	rows := readCSV(t, buf.Bytes())
	assert.Equal(t, [][]string{
		{"identifier", "error", "topic"},
		{"a.pdf", "", "Tax"},
		{"a.pdf", "", "Audit"},
	}, rows)
}

func TestEmit_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Emit(&buf, sampleOutcomes()[:2], export.Options{Format: domain.FormatText, IncludeScores: true}))

	want := "dir/a.pdf\nTax (80.00)\nAudit (71.30)\n\ndir/b.pdf\nError: connection refused\n\n"
	assert.Equal(t, want, buf.String())
}

func TestEmit_TextWithoutScores(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Emit(&buf, sampleOutcomes()[2:3], export.Options{Format: domain.FormatText}))

	assert.Equal(t, "dir/c.pdf\nLaw\n\n", buf.String())
}

func TestEmit_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Emit(&buf, sampleOutcomes(), export.Options{Format: domain.FormatXLSX}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"identifier", "error", "topic", "topic"}, rows[0])
	assert.Equal(t, []string{"a.pdf", "", "Tax", "Audit"}, rows[1])
	require.GreaterOrEqual(t, len(rows[2]), 2)
	assert.Equal(t, "b.pdf", rows[2][0])
	assert.Equal(t, "connection refused", rows[2][1])
}

func TestEmit_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := export.Emit(&buf, sampleOutcomes(), export.Options{Format: "yaml"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEmit_ReportsWriteFailure(t *testing.T) {
	for _, format := range []domain.OutputFormat{domain.FormatJSON, domain.FormatCSV, domain.FormatText, domain.FormatXLSX} {
		err := export.Emit(failingWriter{}, sampleOutcomes(), export.Options{Format: format})
		assert.Error(t, err, format)
	}
}

func malformedOutcomes() []domain.ItemOutcome {
	msg := "boom"
	return []domain.ItemOutcome{
		{Identifier: "a"},
		{Identifier: "b", Error: &msg, Topics: []domain.RankedTopic{{Topic: "X", Score: 1}}},
	}
}

func TestEmit_NormalizesMalformedOutcomes(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, export.Emit(&buf, malformedOutcomes(), export.Options{Format: domain.FormatJSON}))

		var got []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, []any{}, got[0]["classifications"])
		assert.Equal(t, []any{}, got[1]["classifications"])
		assert.Equal(t, "boom", got[1]["error"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, export.Emit(&buf, malformedOutcomes(), export.Options{Format: domain.FormatText, IncludeScores: true}))
		assert.Equal(t, "a\n\nb\nError: boom\n\n", buf.String())
	})

	t.Run("wide csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, export.Emit(&buf, malformedOutcomes(), export.Options{Format: domain.FormatCSV}))
		assert.Equal(t, [][]string{{"identifier", "error"}, {"a", ""}, {"b", "boom"}}, readCSV(t, buf.Bytes()))
	})

	t.Run("caller slice untouched", func(t *testing.T) {
		in := malformedOutcomes()
		require.NoError(t, export.Emit(&bytes.Buffer{}, in, export.Options{Format: domain.FormatJSON}))
		assert.Nil(t, in[0].Topics)
		assert.Len(t, in[1].Topics, 1)
	})
}
