// Command classify sends every document in a directory to the classification service and
// reports the top topics of one category per document.
// Usage: go run ./cmd/classify [flags] [directory]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"semclass/internal/classifier"
	"semclass/internal/classifier/semaphore"
	"semclass/internal/config"
	"semclass/internal/domain"
	"semclass/internal/export"
	"semclass/internal/metrics"
	"semclass/internal/notify/noop"
	"semclass/internal/notify/ses"
	"semclass/internal/parser"
	"semclass/internal/port"
	"semclass/internal/service"
	"semclass/internal/source"
	s3storage "semclass/internal/storage/s3"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

type cliFlags struct {
	json        bool
	csvFile     string
	xlsxFile    string
	serviceInfo bool
}

func newFlagSet(stderr io.Writer) (*pflag.FlagSet, *cliFlags) {
	fs := pflag.NewFlagSet("classify", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "Usage: classify [flags] [directory]  (directory defaults to ./downloads)")
		fs.PrintDefaults()
	}

	cli := &cliFlags{}

	// bound into config; defaults mirror the config defaults
	fs.Int("threshold", 48, "classification threshold (1-99)")
	fs.Bool("recursive", false, "process subdirectories recursively")
	fs.String("api-key", "", "classification service API key (overrides SEMAPHORE_API_KEY)")
	fs.Bool("include-scoring", false, "include score values in output")
	fs.Int("max-topics", 10, "maximum number of topics per document")
	fs.String("category", domain.DefaultCategory, "category whose topics are reported")
	fs.Int("workers", 1, "documents classified concurrently")
	fs.StringSlice("strategies", []string{classifier.StrategyFile, classifier.StrategyText}, "submission strategies, tried in order")
	fs.String("language", "", "document language sent to the service")
	fs.Bool("alternative", false, "use the alternative classification endpoint")
	fs.String("format", string(domain.FormatText), "output format: text, json, csv or xlsx")
	fs.String("output", export.StdoutTarget, "output destination: -, a file path or s3://bucket/key")
	fs.String("tabular-mode", string(domain.TabularWide), "csv/xlsx layout: wide or long")
	fs.Bool("raw-json", false, "also write the full raw service responses as JSON")
	fs.String("raw-output", export.StdoutTarget, "destination of --raw-json output")
	fs.String("metrics-file", "", "write batch metrics here in Prometheus text format")
	fs.String("preservica-folder-ref", "", "download the assets of this folder before classifying (needs DOWNLOAD_SCRIPT)")
	fs.Bool("keep-files", false, "keep downloaded files after processing")
	fs.StringSlice("exclude-extensions", nil, "skip files with these extensions (e.g. mp4,avi)")
	fs.StringSlice("include-extensions", nil, "only process files with these extensions (e.g. pdf,txt)")

	// shorthands that only select outputs
	fs.BoolVar(&cli.json, "json", false, "write JSON to stdout")
	fs.StringVar(&cli.csvFile, "csv", "", "write CSV to `FILE`")
	fs.StringVar(&cli.xlsxFile, "xlsx", "", "write an Excel workbook to `FILE`")
	fs.BoolVar(&cli.serviceInfo, "service-info", false, "print the service endpoints in use and exit")

	return fs, cli
}

func run(args []string, stdout, stderr io.Writer) error {
	fs, cli := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if fs.NArg() > 0 {
		cfg.Source.Directory = fs.Arg(0)
	}
	targets := planOutputs(cfg.Output, cli)
	for _, t := range targets {
		cfg.Output.Format = t.format
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := semaphore.NewClient(&cfg.Service)
	if err != nil {
		return err
	}

	if cli.serviceInfo {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(client.Info())
	}

	downloaded := false
	if cfg.Assets.FolderRef != "" {
		log.Printf("classify: downloading assets of folder %s into %s", cfg.Assets.FolderRef, cfg.Source.Directory)
		if err := source.NewAssetDownloader(&cfg.Assets).Download(ctx, cfg.Assets.FolderRef, cfg.Source.Directory); err != nil {
			return fmt.Errorf("downloading assets: %w", err)
		}
		downloaded = true
	}

	if _, err := client.Authenticate(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	log.Printf("classify: authenticated with %s", cfg.Service.BaseURL)

	files, err := source.Collect(cfg.Source.Directory, source.CollectOptions{
		Recursive: cfg.Source.Recursive,
		Include:   cfg.Source.IncludeExtensions,
		Exclude:   cfg.Source.ExcludeExtensions,
	})
	if err != nil {
		return err
	}
	log.Printf("classify: found %d files to process", len(files))

	strategies, err := classifier.NewStrategies(client, cfg.Classify.Strategies)
	if err != nil {
		return err
	}
	fallback := classifier.NewFallbackClassifier(strategies...)

	recorder := metrics.NewRecorder()
	batch := service.NewBatchService(service.BatchConfig{
		Category:    cfg.Classify.Category,
		MaxTopics:   cfg.Classify.MaxTopics,
		Workers:     cfg.Classify.Workers,
		ItemTimeout: cfg.Classify.ItemTimeout(),
		KeepRaw:     cfg.Output.RawJSON,
	}, parser.NewExtractor(nil), recorder)

	result, runErr := batch.Run(ctx, buildItems(files, fallback, cfg.Classify.Threshold))
	if runErr != nil && !errors.Is(runErr, domain.ErrAllItemsFailed) {
		return runErr
	}

	dest := &export.Destinations{Stdout: stdout}
	if needsObjectStorage(targets, cfg.Output) {
		store, err := s3storage.NewObjectStore(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("initializing object storage: %w", err)
		}
		dest.Storage = store
	}

	for _, t := range targets {
		opts := export.Options{
			Format:           t.format,
			IncludeScores:    cfg.Output.IncludeScores,
			Mode:             cfg.Output.TabularMode,
			IdentifierHeader: cfg.Output.IdentifierHeader,
			TopicHeader:      cfg.Output.TopicHeader,
			BOM:              cfg.Output.BOM,
		}
		err := dest.Deliver(ctx, t.target, t.format, func(w io.Writer) error {
			return export.Emit(w, result.Outcomes, opts)
		})
		if err != nil {
			return err
		}
		if t.target != export.StdoutTarget {
			log.Printf("classify: %s output written to %s", t.format, t.target)
		}
	}

	if cfg.Output.RawJSON {
		err := dest.Deliver(ctx, cfg.Output.RawDestination, domain.FormatJSON, func(w io.Writer) error {
			return export.RawDump(w, result.Raw)
		})
		if err != nil {
			return err
		}
	}

	summary := result.Summary()
	_, _ = fmt.Fprintf(stderr, "processed %d items (%d succeeded, %d failed)\n", summary.Total, summary.Succeeded, summary.Failed)

	if cfg.Output.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			log.Printf("classify: writing metrics to %s: %v", cfg.Output.MetricsFile, err)
		} else {
			log.Printf("classify: metrics written to %s", cfg.Output.MetricsFile)
		}
	}

	notifier, err := newNotifier(ctx, &cfg.Notify)
	if err != nil {
		log.Printf("classify: notifier unavailable: %v", err)
	} else {
		notifyCompletion(ctx, notifier, buildReport(result, cfg.Source.Directory, targets))
	}

	if downloaded && !cfg.Assets.KeepFiles {
		n, err := source.Cleanup(cfg.Source.Directory)
		if err != nil {
			log.Printf("classify: cleanup of %s incomplete: %v", cfg.Source.Directory, err)
		} else {
			log.Printf("classify: deleted %d downloaded files from %s", n, cfg.Source.Directory)
		}
	}

	return runErr
}

func newNotifier(ctx context.Context, cfg *config.NotifyConfig) (port.Notifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ses":
		return ses.NewSESNotifier(ctx, cfg)
	case "", "noop":
		return noop.NewNoopNotifier(), nil
	default:
		return nil, fmt.Errorf("unknown notify provider: %s", cfg.Provider)
	}
}
