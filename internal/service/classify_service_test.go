package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"semclass/internal/domain"
	"semclass/internal/port"
	"semclass/internal/service"
	"semclass/mocks"
)

func TestClassifyService_RanksCategory(t *testing.T) {
	cls := new(mocks.MockClassifier)
	cls.On("Classify", mock.Anything, port.ClassifyRequest{Text: "tax guidance", Title: "guide", Threshold: 48}).
		Return(domain.NewTextPayload(taxResponse), nil)

	svc := service.NewClassifyService(cls, nil, service.ClassifyDefaults{Threshold: 48, MaxTopics: 10}, nil)
	result, err := svc.Classify(context.Background(), service.ClassifyInput{Text: "tax guidance", Title: "guide"})

	require.NoError(t, err)
	require.NotNil(t, result.DocumentURL)
	assert.Equal(t, "doc://a", *result.DocumentURL)
	assert.Equal(t, domain.DefaultCategory, result.Category)
	assert.Equal(t, []domain.RankedTopic{{Topic: "Tax", Score: 80}, {Topic: "Audit", Score: 71.3}}, result.Topics)
	assert.Equal(t, []string{"Generic_UPWARD", "Other"}, result.Categories)
	require.NotEmpty(t, result.Top)
	assert.Equal(t, "Ignored", result.Top[0].Value)
	cls.AssertExpectations(t)
}

func TestClassifyService_RequestOverridesDefaults(t *testing.T) {
	cls := new(mocks.MockClassifier)
	cls.On("Classify", mock.Anything, mock.MatchedBy(func(r port.ClassifyRequest) bool {
		return r.Threshold == 70 && r.Filename == "a.pdf" && string(r.Content) == "%PDF"
	})).Return(domain.NewTextPayload(taxResponse), nil)

	svc := service.NewClassifyService(cls, nil, service.ClassifyDefaults{Threshold: 48, MaxTopics: 10}, nil)
	result, err := svc.Classify(context.Background(), service.ClassifyInput{
		Content:   []byte("%PDF"),
		Filename:  "a.pdf",
		Threshold: 70,
		MaxTopics: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, []domain.RankedTopic{{Topic: "Tax", Score: 80}}, result.Topics)
	assert.Len(t, result.Top, 1)
}

func TestClassifyService_EmptyDocument(t *testing.T) {
	cls := new(mocks.MockClassifier)
	svc := service.NewClassifyService(cls, nil, service.ClassifyDefaults{}, nil)

	_, err := svc.Classify(context.Background(), service.ClassifyInput{Title: "nothing"})

	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	cls.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
}

func TestClassifyService_PropagatesClassifierError(t *testing.T) {
	cls := new(mocks.MockClassifier)
	cls.On("Classify", mock.Anything, mock.Anything).Return(domain.RawPayload{}, errors.New("unreachable"))

	svc := service.NewClassifyService(cls, nil, service.ClassifyDefaults{}, nil)
	_, err := svc.Classify(context.Background(), service.ClassifyInput{Text: "x"})

	assert.ErrorContains(t, err, "unreachable")
}

func TestClassifyService_ServiceRejected(t *testing.T) {
	cls := new(mocks.MockClassifier)
	cls.On("Classify", mock.Anything, mock.Anything).
		Return(domain.NewStructuredPayload([]byte(`{"error":"quota exceeded"}`)), nil)

	svc := service.NewClassifyService(cls, nil, service.ClassifyDefaults{}, nil)
	_, err := svc.Classify(context.Background(), service.ClassifyInput{Text: "x"})

	assert.ErrorIs(t, err, domain.ErrServiceRejected)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestClassifyService_RecordsEveryDocument(t *testing.T) {
	cls := new(mocks.MockClassifier)
	cls.On("Classify", mock.Anything, mock.MatchedBy(func(r port.ClassifyRequest) bool { return r.Text == "tax guidance" })).
		Return(domain.NewTextPayload(taxResponse), nil)
	cls.On("Classify", mock.Anything, mock.MatchedBy(func(r port.ClassifyRequest) bool { return r.Text == "broken" })).
		Return(domain.RawPayload{}, errors.New("unreachable"))

	rec := &fakeRecorder{}
	svc := service.NewClassifyService(cls, nil, service.ClassifyDefaults{MaxTopics: 10}, rec)

	_, err := svc.Classify(context.Background(), service.ClassifyInput{Text: "tax guidance", Filename: "guide.txt"})
	require.NoError(t, err)
	_, err = svc.Classify(context.Background(), service.ClassifyInput{Text: "broken"})
	require.Error(t, err)
	_, err = svc.Classify(context.Background(), service.ClassifyInput{})
	require.ErrorIs(t, err, domain.ErrEmptyDocument)

	require.Len(t, rec.outcomes, 2)
	assert.Equal(t, "guide.txt", rec.outcomes[0].Identifier)
	assert.False(t, rec.outcomes[0].Failed())
	assert.Len(t, rec.outcomes[0].Topics, 2)
	assert.Equal(t, "api", rec.outcomes[1].Identifier)
	assert.True(t, rec.outcomes[1].Failed())
}
