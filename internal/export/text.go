package export

import (
	"bufio"
	"fmt"
	"io"

	"semclass/internal/domain"
)

// writeText prints each item as an identifier line, one line per topic and a blank line.
func writeText(w io.Writer, outcomes []domain.ItemOutcome, opts Options) error {
	bw := bufio.NewWriter(w)
	for i := range outcomes {
		o := &outcomes[i]
		fmt.Fprintln(bw, o.Identifier)
		if o.Failed() {
			fmt.Fprintf(bw, "Error: %s\n", *o.Error)
		}
		for _, t := range o.Topics {
			if opts.IncludeScores {
				fmt.Fprintf(bw, "%s (%.2f)\n", t.Topic, t.Score)
			} else {
				fmt.Fprintln(bw, t.Topic)
			}
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
