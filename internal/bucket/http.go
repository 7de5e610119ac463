package bucket

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts bucket endpoints onto the router.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/buckets", handler.listBuckets)
	group.POST("/buckets", handler.createBucket)
	group.GET("/buckets/:name", handler.getBucket)
	group.DELETE("/buckets/:name", handler.deleteBucket)
}

type httpHandler struct {
	service *Service
}

type createBucketRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *httpHandler) listBuckets(c *gin.Context) {
	buckets, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to list buckets",
		})
		return
	}
	if buckets == nil {
		buckets = []Bucket{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"buckets": buckets,
		"count":   len(buckets),
	})
}

func (h *httpHandler) createBucket(c *gin.Context) {
	var req createBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   `please provide bucket name in JSON: {"name": "bucket-name"}`,
		})
		return
	}

	created, err := h.service.Create(c.Request.Context(), req.Name)
	if err != nil {
		var invalid *InvalidNameError
		switch {
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": invalid.Reason})
		case errors.Is(err, ErrBucketNameExists):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   fmt.Sprintf("bucket %q already exists", NormalizeName(req.Name)),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create bucket"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": fmt.Sprintf("bucket %q created successfully", created.Name),
		"bucket":  created,
	})
}

func (h *httpHandler) getBucket(c *gin.Context) {
	name := c.Param("name")

	detail, err := h.service.Get(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, ErrBucketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   fmt.Sprintf("bucket %q not found", name),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to fetch bucket"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bucket":  detail,
	})
}

func (h *httpHandler) deleteBucket(c *gin.Context) {
	name := c.Param("name")

	if err := h.service.Delete(c.Request.Context(), name); err != nil {
		var notEmpty *NotEmptyError
		switch {
		case errors.Is(err, ErrBucketNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   fmt.Sprintf("bucket %q not found", name),
			})
		case errors.As(err, &notEmpty):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   fmt.Sprintf("bucket has %d files, delete files first", notEmpty.FileCount),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to delete bucket"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("bucket %q deleted successfully", name),
	})
}
