// Package export renders batch outcomes as JSON, CSV, XLSX or plain text.
package export

import (
	"fmt"
	"io"

	"semclass/internal/domain"
)

const (
	defaultIdentifierHeader = "identifier"
	defaultTopicHeader      = "topic"
	errorHeader             = "error"
	scoreHeader             = "score"
)

// BOM is the UTF-8 byte order mark, written ahead of CSV output for Excel on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls how outcomes are rendered.
type Options struct {
	Format           domain.OutputFormat
	IncludeScores    bool
	Mode             domain.TabularMode
	IdentifierHeader string
	TopicHeader      string
	BOM              bool
}

func (o Options) identifierHeader() string {
	if o.IdentifierHeader == "" {
		return defaultIdentifierHeader
	}
	return o.IdentifierHeader
}

func (o Options) topicHeader() string {
	if o.TopicHeader == "" {
		return defaultTopicHeader
	}
	return o.TopicHeader
}

// Emit writes outcomes to w in opts.Format. Only write failures are returned; outcomes
// with unusual contents are rendered as they are.
func Emit(w io.Writer, outcomes []domain.ItemOutcome, opts Options) error {
	outcomes = normalizeOutcomes(outcomes)
	switch opts.Format {
	case domain.FormatJSON:
		return writeJSON(w, outcomes)
	case domain.FormatCSV:
		if opts.Mode == domain.TabularLong {
			return writeLongCSV(w, outcomes, opts)
		}
		return writeWideCSV(w, outcomes, opts)
	case domain.FormatText, "":
		return writeText(w, outcomes, opts)
	case domain.FormatXLSX:
		return writeXLSX(w, outcomes, opts)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, opts.Format)
	}
}

// normalizeOutcomes copies outcomes so that every item carries a non-nil topic list and
// failed items carry no topics, whatever the caller built.
func normalizeOutcomes(outcomes []domain.ItemOutcome) []domain.ItemOutcome {
	out := make([]domain.ItemOutcome, len(outcomes))
	for i, o := range outcomes {
		if o.Failed() || o.Topics == nil {
			o.Topics = []domain.RankedTopic{}
		}
		out[i] = o
	}
	return out
}

// displayName is the first cell of a tabular row.
func displayName(o *domain.ItemOutcome) string {
	if o.Filename != "" {
		return o.Filename
	}
	return o.Identifier
}

// widestRow counts the topic columns needed by the wide layouts. Failed items do not count.
func widestRow(outcomes []domain.ItemOutcome) int {
	maxTopics := 0
	for i := range outcomes {
		if outcomes[i].Failed() {
			continue
		}
		if n := len(outcomes[i].Topics); n > maxTopics {
			maxTopics = n
		}
	}
	return maxTopics
}

// wideRows builds the header and rows shared by the wide CSV and XLSX layouts.
// Every row has exactly 2 + maxTopics cells.
func wideRows(outcomes []domain.ItemOutcome, opts Options) [][]string {
	maxTopics := widestRow(outcomes)
	width := 2 + maxTopics

	rows := make([][]string, 0, len(outcomes)+1)
	header := make([]string, 0, width)
	header = append(header, opts.identifierHeader(), errorHeader)
	for i := 0; i < maxTopics; i++ {
		header = append(header, opts.topicHeader())
	}
	rows = append(rows, header)

	for i := range outcomes {
		o := &outcomes[i]
		row := make([]string, width)
		row[0] = displayName(o)
		if o.Failed() {
			row[1] = *o.Error
		} else {
			for j, t := range o.Topics {
				row[2+j] = t.Topic
			}
		}
		rows = append(rows, row)
	}
	return rows
}
