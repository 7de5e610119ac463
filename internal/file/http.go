package file

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts file operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/buckets/:name/files", handler.uploadFiles)
	group.GET("/buckets/:name/files", handler.listFiles)
	group.GET("/buckets/:name/files/:filename", handler.downloadFile)
	group.DELETE("/buckets/:name/files/:filename", handler.deleteFile)
}

type httpHandler struct {
	service *Service
}

// multipart parsing can wrap the MaxBytesReader error in plain text, so the
// message is matched as a fallback.
func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large")
}

func (h *httpHandler) uploadFiles(c *gin.Context) {
	bucketName := c.Param("name")

	form, err := c.MultipartForm()
	if err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error":   "request body too large",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no files provided"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no files provided"})
		return
	}

	result, err := h.service.Upload(c.Request.Context(), bucketName, files)
	if err != nil {
		switch {
		case errors.Is(err, ErrBucketNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   fmt.Sprintf("bucket %q not found", bucketName),
			})
		case errors.Is(err, ErrNoFilesUploaded):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "no files were uploaded successfully",
				"errors":  result.Errors,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to upload files"})
		}
		return
	}

	resp := gin.H{
		"success": true,
		"message": fmt.Sprintf("uploaded %d file(s) successfully", len(result.Files)),
		"files":   result.Files,
	}
	if len(result.Errors) > 0 {
		resp["errors"] = result.Errors
	}
	c.JSON(http.StatusOK, resp)
}

func (h *httpHandler) listFiles(c *gin.Context) {
	bucketName := c.Param("name")

	files, err := h.service.List(c.Request.Context(), bucketName)
	if err != nil {
		if errors.Is(err, ErrBucketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   fmt.Sprintf("bucket %q not found", bucketName),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list files"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"files":   files,
		"count":   len(files),
	})
}

func (h *httpHandler) downloadFile(c *gin.Context) {
	bucketName := c.Param("name")
	filename := c.Param("filename")

	dl, err := h.service.Resolve(c.Request.Context(), bucketName, filename)
	if err != nil {
		switch {
		case errors.Is(err, ErrBucketNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   fmt.Sprintf("bucket %q not found", bucketName),
			})
		case errors.Is(err, ErrFileNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   fmt.Sprintf("file %q not found", filename),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to download file"})
		}
		return
	}

	if dl.Inline {
		c.Header("Content-Type", dl.Info.ContentType)
		c.File(dl.Path)
		return
	}
	c.FileAttachment(dl.Path, filename)
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	bucketName := c.Param("name")
	filename := c.Param("filename")

	if err := h.service.Delete(c.Request.Context(), bucketName, filename); err != nil {
		switch {
		case errors.Is(err, ErrBucketNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   fmt.Sprintf("bucket %q not found", bucketName),
			})
		case errors.Is(err, ErrFileNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   fmt.Sprintf("file %q not found", filename),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to delete file"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("file %q deleted successfully", filename),
	})
}
