package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"semclass/internal/handler"
	"semclass/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	classifyH *handler.ClassifyHandler,
	healthH *handler.HealthHandler,
	metricsHandler http.Handler,
	observer middleware.HTTPObserver,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(corsOrigins))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	if observer != nil {
		r.Use(middleware.Metrics(observer))
	}

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	v1 := r.Group("/api/v1")

	classify := v1.Group("/classify")
	classify.POST("", classifyH.ClassifyText)
	classify.POST("/file", classifyH.ClassifyFile)

	return r
}
