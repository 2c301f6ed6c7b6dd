package service

import (
	"context"
	"fmt"
	"time"

	"semclass/internal/domain"
	"semclass/internal/parser"
	"semclass/internal/port"
	"semclass/internal/rank"
)

// ClassifyInput is one document submitted through the API. Either Text or Content is set.
type ClassifyInput struct {
	Text      string
	Content   []byte
	Filename  string
	Title     string
	Threshold int
	Category  string
	MaxTopics int
}

// ClassifyResult is the ranked view of one classified document.
type ClassifyResult struct {
	DocumentURL *string                   `json:"document_url"`
	Category    string                    `json:"category"`
	Topics      []domain.RankedTopic      `json:"topics"`
	Top         []domain.CategorizedTopic `json:"top_classifications"`
	Categories  []string                  `json:"categories"`
	SystemInfo  map[string]string         `json:"system_info,omitempty"`
}

// ClassifyDefaults fills in options a request leaves unset.
type ClassifyDefaults struct {
	Threshold int
	Category  string
	MaxTopics int
}

// ClassifyService defines the single-document classification contract.
type ClassifyService interface {
	Classify(ctx context.Context, input ClassifyInput) (*ClassifyResult, error)
}

type classifyService struct {
	classifier port.Classifier
	extractor  *parser.Extractor
	defaults   ClassifyDefaults
	recorder   Recorder
}

// apiIdentifier labels API documents submitted without a filename.
const apiIdentifier = "api"

// NewClassifyService creates a new ClassifyService. recorder may be nil.
func NewClassifyService(classifier port.Classifier, extractor *parser.Extractor, defaults ClassifyDefaults, recorder Recorder) ClassifyService {
	if extractor == nil {
		extractor = parser.NewExtractor(nil)
	}
	if defaults.Category == "" {
		defaults.Category = domain.DefaultCategory
	}
	return &classifyService{
		classifier: classifier,
		extractor:  extractor,
		defaults:   defaults,
		recorder:   recorder,
	}
}

func (s *classifyService) Classify(ctx context.Context, input ClassifyInput) (*ClassifyResult, error) {
	if input.Text == "" && len(input.Content) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	start := time.Now()
	result, err := s.classify(ctx, input)
	s.observe(input, result, err, time.Since(start))
	return result, err
}

func (s *classifyService) observe(input ClassifyInput, result *ClassifyResult, err error, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}
	identifier := input.Filename
	if identifier == "" {
		identifier = apiIdentifier
	}
	if err != nil {
		s.recorder.ObserveItem(domain.NewFailedOutcome(identifier, input.Filename, err), elapsed)
		return
	}
	s.recorder.ObserveItem(domain.NewSuccessOutcome(identifier, input.Filename, result.Topics), elapsed)
}

func (s *classifyService) classify(ctx context.Context, input ClassifyInput) (*ClassifyResult, error) {
	threshold := input.Threshold
	if threshold == 0 {
		threshold = s.defaults.Threshold
	}
	category := input.Category
	if category == "" {
		category = s.defaults.Category
	}
	maxTopics := input.MaxTopics
	if maxTopics == 0 {
		maxTopics = s.defaults.MaxTopics
	}

	payload, err := s.classifier.Classify(ctx, port.ClassifyRequest{
		Filename:  input.Filename,
		Content:   input.Content,
		Text:      input.Text,
		Title:     input.Title,
		Threshold: threshold,
	})
	if err != nil {
		return nil, err
	}
	if msg := payload.ServiceError(); msg != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrServiceRejected, msg)
	}

	parsed, err := s.extractor.Extract(payload)
	if err != nil {
		return nil, err
	}

	names := parsed.Categories.Names()
	if names == nil {
		names = []string{}
	}
	return &ClassifyResult{
		DocumentURL: parsed.DocumentURL,
		Category:    category,
		Topics:      rank.Category(parsed, category, maxTopics),
		Top:         rank.Top(parsed, maxTopics),
		Categories:  names,
		SystemInfo:  parsed.SystemInfo,
	}, nil
}
