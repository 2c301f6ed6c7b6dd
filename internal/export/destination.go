package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"semclass/internal/domain"
	"semclass/internal/port"
)

// StdoutTarget selects standard output as destination.
const StdoutTarget = "-"

const s3Scheme = "s3://"

var errNoStorage = errors.New("no object storage configured")

// DestinationError reports that output could not be delivered. It is fatal to a run.
type DestinationError struct {
	Target string
	Err    error
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("writing output to %s: %v", e.Target, e.Err)
}

func (e *DestinationError) Unwrap() error {
	return e.Err
}

var contentTypes = map[domain.OutputFormat]string{
	domain.FormatJSON: "application/json",
	domain.FormatCSV:  "text/csv",
	domain.FormatText: "text/plain; charset=utf-8",
	domain.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

var extensions = map[domain.OutputFormat]string{
	domain.FormatJSON: ".json",
	domain.FormatCSV:  ".csv",
	domain.FormatText: ".txt",
	domain.FormatXLSX: ".xlsx",
}

// ContentType returns the MIME type of a rendered format.
func ContentType(format domain.OutputFormat) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Destinations opens output targets: "-" or "" for stdout, s3://bucket/key for object
// storage, anything else as a local file path.
type Destinations struct {
	Storage port.ObjectStorage // only needed for s3:// targets
	Stdout  io.Writer
}

// Deliver opens target, lets write render into it and closes it. Every failure is returned
// as a *DestinationError naming target.
func (d *Destinations) Deliver(ctx context.Context, target string, format domain.OutputFormat, write func(io.Writer) error) error {
	wc, err := d.Open(ctx, target, format)
	if err != nil {
		return err
	}
	if err := write(wc); err != nil {
		if ow, ok := wc.(*objectWriter); ok {
			ow.closed = true // nothing is uploaded after a failed render
		}
		_ = wc.Close()
		return asDestinationError(target, err)
	}
	return wc.Close()
}

// Open returns a writer for target. Close must be called; for s3:// targets it performs the
// upload.
func (d *Destinations) Open(ctx context.Context, target string, format domain.OutputFormat) (io.WriteCloser, error) {
	switch {
	case target == "" || target == StdoutTarget:
		out := d.Stdout
		if out == nil {
			out = os.Stdout
		}
		return nopCloser{out}, nil

	case strings.HasPrefix(target, s3Scheme):
		bucket, key, err := parseS3Target(target, format)
		if err != nil {
			return nil, &DestinationError{Target: target, Err: err}
		}
		if d.Storage == nil {
			return nil, &DestinationError{Target: target, Err: errNoStorage}
		}
		return &objectWriter{
			ctx:         ctx,
			storage:     d.Storage,
			target:      target,
			bucket:      bucket,
			key:         key,
			contentType: ContentType(format),
			format:      format,
		}, nil

	default:
		f, err := os.Create(target)
		if err != nil {
			return nil, &DestinationError{Target: target, Err: err}
		}
		return &fileWriter{f: f, target: target}, nil
	}
}

// parseS3Target splits s3://bucket/key. A key that is empty or ends in "/" gets a generated
// object name.
func parseS3Target(target string, format domain.OutputFormat) (string, string, error) {
	rest := strings.TrimPrefix(target, s3Scheme)
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", errors.New("missing bucket name")
	}
	if key == "" || strings.HasSuffix(key, "/") {
		key += "classifications-" + uuid.NewString() + extensions[format]
	}
	return bucket, key, nil
}

func asDestinationError(target string, err error) error {
	var dErr *DestinationError
	if errors.As(err, &dErr) {
		return err
	}
	return &DestinationError{Target: target, Err: err}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

type fileWriter struct {
	f      *os.File
	target string
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, &DestinationError{Target: w.target, Err: err}
	}
	return n, nil
}

func (w *fileWriter) Close() error {
	if err := w.f.Close(); err != nil {
		return &DestinationError{Target: w.target, Err: err}
	}
	log.Printf("export.Destinations: wrote %s", w.target)
	return nil
}

// objectWriter buffers output in memory and uploads it on Close.
type objectWriter struct {
	ctx         context.Context
	storage     port.ObjectStorage
	buf         bytes.Buffer
	target      string
	bucket      string
	key         string
	contentType string
	format      domain.OutputFormat
	closed      bool
}

func (w *objectWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *objectWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	out, err := w.storage.Upload(w.ctx, port.UploadInput{
		Bucket:      w.bucket,
		Key:         w.key,
		Body:        bytes.NewReader(w.buf.Bytes()),
		ContentType: w.contentType,
		Size:        int64(w.buf.Len()),
		Metadata:    map[string]string{"format": string(w.format)},
	})
	if err != nil {
		return &DestinationError{Target: w.target, Err: err}
	}
	log.Printf("export.Destinations: uploaded %d bytes to %s", w.buf.Len(), out.Location)
	return nil
}
