package router_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"semclass/internal/domain"
	"semclass/internal/handler"
	"semclass/internal/metrics"
	"semclass/internal/router"
	"semclass/internal/service"
	"semclass/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type alwaysReady struct{}

func (alwaysReady) Ready(context.Context) error { return nil }

func TestSetup_Routes(t *testing.T) {
	svc := new(mocks.MockClassifyService)
	svc.On("Classify", mock.Anything, mock.Anything).Return(&service.ClassifyResult{
		Category: domain.DefaultCategory,
		Topics:   []domain.RankedTopic{},
	}, nil)

	rec := metrics.NewRecorder()
	r := router.Setup(
		handler.NewClassifyHandler(svc),
		handler.NewHealthHandler(alwaysReady{}),
		rec.Handler(),
		rec,
		nil,
	)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewBufferString(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/readyz", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `route="/api/v1/classify"`))
}
