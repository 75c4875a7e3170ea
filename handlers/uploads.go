package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/devblog/devblog-api/internal/storage"
	"github.com/devblog/devblog-api/pkg/logger"
	"github.com/devblog/devblog-api/pkg/middleware"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const presignTTL = 7 * 24 * time.Hour

// RegisterUploadRoutes mounts POST /api/uploads for post images. The body is a
// multipart form with a single "file" field.
func RegisterUploadRoutes(r gin.IRouter, store storage.ObjectStore, auth gin.HandlerFunc, maxBytes int64) {
	r.POST("/api/uploads", auth, func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)
		fh, err := c.FormFile("file")
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "File too large."})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"message": "Image file required."})
			return
		}
		if fh.Size > maxBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "File too large."})
			return
		}
		f, err := fh.Open()
		if err != nil {
			logger.Errorf("Error opening upload: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error while uploading."})
			return
		}
		defer f.Close()

		// the part's declared Content-Type is client-controlled; trust the bytes
		mt, err := mimetype.DetectReader(f)
		if err != nil {
			logger.Errorf("Error reading upload: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error while uploading."})
			return
		}
		if !strings.HasPrefix(mt.String(), "image/") {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Only image uploads are allowed."})
			return
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			logger.Errorf("Error rewinding upload: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error while uploading."})
			return
		}
		ct := mt.String()

		ident, _ := middleware.IdentityFrom(c)
		key := "posts/" + ident.ID + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
		ctx := c.Request.Context()
		if err := store.Put(ctx, key, f, fh.Size, ct); err != nil {
			logger.Errorf("Error storing upload: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error while uploading."})
			return
		}
		u, err := store.PresignedURL(ctx, key, presignTTL)
		if err != nil {
			logger.Errorf("Error presigning upload: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error while uploading."})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"key": key, "url": u})
	})
}
