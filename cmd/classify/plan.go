package main

import (
	"context"
	"log"
	"strings"

	"semclass/internal/config"
	"semclass/internal/domain"
	"semclass/internal/export"
	"semclass/internal/port"
	"semclass/internal/service"
	"semclass/internal/source"
)

type outputTarget struct {
	format domain.OutputFormat
	target string
}

// planOutputs lists the renderings to produce. The --json, --csv and --xlsx shorthands
// replace the configured format and destination; without them the configured pair is used.
func planOutputs(out config.OutputConfig, cli *cliFlags) []outputTarget {
	var targets []outputTarget
	if cli.json {
		targets = append(targets, outputTarget{domain.FormatJSON, export.StdoutTarget})
	}
	if cli.csvFile != "" {
		targets = append(targets, outputTarget{domain.FormatCSV, cli.csvFile})
	}
	if cli.xlsxFile != "" {
		targets = append(targets, outputTarget{domain.FormatXLSX, cli.xlsxFile})
	}
	if len(targets) == 0 {
		targets = append(targets, outputTarget{out.Format, out.Destination})
	}
	return targets
}

func needsObjectStorage(targets []outputTarget, out config.OutputConfig) bool {
	for _, t := range targets {
		if strings.HasPrefix(t.target, "s3://") {
			return true
		}
	}
	return out.RawJSON && strings.HasPrefix(out.RawDestination, "s3://")
}

// buildItems turns discovered files into batch items submitted through classifier.
func buildItems(files []source.File, classifier port.Classifier, threshold int) []service.Item {
	items := make([]service.Item, len(files))
	for i, f := range files {
		items[i] = service.Item{
			Identifier: f.Path,
			Filename:   f.Name,
			TitleHint:  f.Stem,
			Fetch: func(ctx context.Context, title string) (domain.RawPayload, error) {
				return classifier.Classify(ctx, port.ClassifyRequest{
					Path:      f.Path,
					Filename:  f.Name,
					Title:     title,
					Threshold: threshold,
				})
			},
		}
	}
	return items
}

func failures(outcomes []domain.ItemOutcome) []domain.ItemOutcome {
	var out []domain.ItemOutcome
	for _, o := range outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

func describeTargets(targets []outputTarget) string {
	parts := make([]string, len(targets))
	for i, t := range targets {
		target := t.target
		if target == "" || target == export.StdoutTarget {
			target = "stdout"
		}
		parts[i] = string(t.format) + " to " + target
	}
	return strings.Join(parts, ", ")
}

func buildReport(result *domain.BatchResult, sourceDir string, targets []outputTarget) port.BatchReport {
	return port.BatchReport{
		Summary:     result.Summary(),
		Source:      sourceDir,
		Destination: describeTargets(targets),
		Failures:    failures(result.Outcomes),
	}
}

// notifyCompletion sends report. A failed notification is logged and does not fail the run.
func notifyCompletion(ctx context.Context, n port.Notifier, report port.BatchReport) {
	if err := n.NotifyBatchComplete(ctx, report); err != nil {
		log.Printf("classify: sending notification: %v", err)
	}
}
