package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"semclass/internal/domain"
)

func newCSVWriter(w io.Writer, opts Options) (*csv.Writer, error) {
	if opts.BOM {
		if _, err := w.Write(BOM); err != nil {
			return nil, err
		}
	}
	return csv.NewWriter(w), nil
}

// writeWideCSV writes one row per item: identifier, error, then one topic per column.
func writeWideCSV(w io.Writer, outcomes []domain.ItemOutcome, opts Options) error {
	cw, err := newCSVWriter(w, opts)
	if err != nil {
		return err
	}
	if err := cw.WriteAll(wideRows(outcomes, opts)); err != nil {
		return err
	}
	return cw.Error()
}

// writeLongCSV writes one row per topic. Failed items and items without topics get a
// single row so every item appears at least once.
func writeLongCSV(w io.Writer, outcomes []domain.ItemOutcome, opts Options) error {
	cw, err := newCSVWriter(w, opts)
	if err != nil {
		return err
	}

	header := []string{opts.identifierHeader(), errorHeader, opts.topicHeader()}
	if opts.IncludeScores {
		header = append(header, scoreHeader)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := range outcomes {
		o := &outcomes[i]
		name := displayName(o)

		if o.Failed() || len(o.Topics) == 0 {
			row := make([]string, len(header))
			row[0] = name
			if o.Failed() {
				row[1] = *o.Error
			}
			if err := cw.Write(row); err != nil {
				return err
			}
			continue
		}

		for _, t := range o.Topics {
			row := []string{name, "", t.Topic}
			if opts.IncludeScores {
				row = append(row, formatScore(t.Score))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
