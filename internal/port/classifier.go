package port

import (
	"context"

	"semclass/internal/domain"
)

// ClassifyRequest carries one document and the submission options for it. A document is
// given by Text, by Content, or by Path, checked in that order by each submission mode.
type ClassifyRequest struct {
	Path      string
	Filename  string
	Content   []byte
	Text      string
	Title     string
	Threshold int
	Language  string
}

// Classifier submits a document and returns the service's raw response.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (domain.RawPayload, error)
}

// ServiceClient is the network client of the classification service.
type ServiceClient interface {
	Authenticate(ctx context.Context) (string, error)
	ClassifyText(ctx context.Context, req ClassifyRequest) (domain.RawPayload, error)
	ClassifyFile(ctx context.Context, req ClassifyRequest) (domain.RawPayload, error)
}
