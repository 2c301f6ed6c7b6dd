package classifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"semclass/internal/domain"
	"semclass/internal/port"
)

// Strategy names accepted in configuration.
const (
	StrategyFile = "file"
	StrategyText = "text"
)

// Strategy is one way of submitting a document.
type Strategy interface {
	port.Classifier
	Name() string
}

var errNoFile = errors.New("request has no file to upload")

// FileStrategy uploads the document as a file.
type FileStrategy struct {
	client port.ServiceClient
}

// NewFileStrategy creates a FileStrategy backed by client.
func NewFileStrategy(client port.ServiceClient) *FileStrategy {
	return &FileStrategy{client: client}
}

func (s *FileStrategy) Name() string { return StrategyFile }

func (s *FileStrategy) Classify(ctx context.Context, req port.ClassifyRequest) (domain.RawPayload, error) {
	if req.Content == nil && req.Path == "" {
		return domain.RawPayload{}, errNoFile
	}
	return s.client.ClassifyFile(ctx, req)
}

// TextStrategy submits the document body as text. Files are read as UTF-8; invalid byte
// sequences are dropped.
type TextStrategy struct {
	client port.ServiceClient
}

// NewTextStrategy creates a TextStrategy backed by client.
func NewTextStrategy(client port.ServiceClient) *TextStrategy {
	return &TextStrategy{client: client}
}

func (s *TextStrategy) Name() string { return StrategyText }

func (s *TextStrategy) Classify(ctx context.Context, req port.ClassifyRequest) (domain.RawPayload, error) {
	if req.Text == "" {
		switch {
		case req.Content != nil:
			req.Text = strings.ToValidUTF8(string(req.Content), "")
		case req.Path != "":
			data, err := os.ReadFile(req.Path)
			if err != nil {
				return domain.RawPayload{}, fmt.Errorf("reading %s: %w", req.Path, err)
			}
			req.Text = strings.ToValidUTF8(string(data), "")
		default:
			return domain.RawPayload{}, domain.ErrEmptyDocument
		}
	}
	return s.client.ClassifyText(ctx, req)
}

// NewStrategies builds strategies by name, in the given order.
func NewStrategies(client port.ServiceClient, names []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case StrategyFile:
			out = append(out, NewFileStrategy(client))
		case StrategyText:
			out = append(out, NewTextStrategy(client))
		default:
			return nil, fmt.Errorf("unknown submission strategy: %s", name)
		}
	}
	return out, nil
}
