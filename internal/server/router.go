package server

import (
	"net/http"

	"github.com/bucketstore/bucketstore/internal/bucket"
	"github.com/bucketstore/bucketstore/internal/config"
	"github.com/bucketstore/bucketstore/internal/file"
	"github.com/bucketstore/bucketstore/internal/logger"
	"github.com/bucketstore/bucketstore/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config        config.Config
	DB            Pinger
	Logger        *zap.Logger
	BucketService *bucket.Service
	FileService   *file.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Logger != nil {
		router.Use(logger.Middleware(deps.Logger))
	}

	metrics.InitMetrics()
	router.Use(metrics.Middleware())
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	if max := deps.Config.Storage.MaxRequestBytes; max > 0 {
		router.Use(bodyLimit(max))
	}

	registerHomeRoute(router)
	registerHealthRoutes(router, deps)

	api := router.Group("/")
	if deps.BucketService != nil {
		bucket.RegisterRoutes(api, deps.BucketService)
	}
	if deps.FileService != nil {
		file.RegisterRoutes(api, deps.FileService)
	}

	return router
}

// bodyLimit caps the request body so oversized uploads fail before any
// partial write reaches the storage root.
func bodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func registerHomeRoute(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "bucketstore - simple storage service",
			"endpoints": gin.H{
				"create_bucket": "POST /buckets",
				"list_buckets":  "GET /buckets",
				"get_bucket":    "GET /buckets/:name",
				"delete_bucket": "DELETE /buckets/:name",
				"upload_files":  "POST /buckets/:name/files",
				"list_files":    "GET /buckets/:name/files",
				"download_file": "GET /buckets/:name/files/:filename",
				"delete_file":   "DELETE /buckets/:name/files/:filename",
			},
		})
	})
}
