package handler

import (
	"errors"
	"net/http"

	"github.com/devblog/devblog-api/internal/post"
	"github.com/devblog/devblog-api/internal/post/service"
	"github.com/devblog/devblog-api/pkg/logger"
	"github.com/devblog/devblog-api/pkg/middleware"
	"github.com/gin-gonic/gin"
)

type createRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// updateRequest lists the only fields an owner may change; anything else in
// the body (author, authorId, date...) is ignored.
type updateRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

// RegisterPostRoutes mounts the post API under /api/posts. auth guards the mutating routes.
func RegisterPostRoutes(r gin.IRouter, svc service.Service, auth gin.HandlerFunc) {
	h := &postHandler{svc: svc}
	g := r.Group("/api/posts")
	g.POST("", auth, h.create)
	g.GET("", h.list)
	g.GET("/author/:authorId", h.listByAuthor)
	g.GET("/:id", h.get)
	g.PUT("/:id", auth, h.update)
	g.DELETE("/:id", auth, h.delete)
}

type postHandler struct {
	svc service.Service
}

func (h *postHandler) create(c *gin.Context) {
	const failed = "Internal server error while creating post."
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Title, content and login required."})
		return
	}
	ident, _ := middleware.IdentityFrom(c)
	p, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		Title:      req.Title,
		Content:    req.Content,
		Tags:       req.Tags,
		AuthorID:   ident.ID,
		AuthorName: ident.Name,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Title, content and login required."})
			return
		}
		logger.Errorf("Error creating post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": failed})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "title": p.Title})
}

func (h *postHandler) list(c *gin.Context) {
	posts, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		logger.Errorf("Error fetching posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error while fetching posts."})
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *postHandler) listByAuthor(c *gin.Context) {
	posts, err := h.svc.ListByAuthor(c.Request.Context(), c.Param("authorId"))
	if err != nil {
		logger.Errorf("Error fetching posts by author: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error while fetching posts."})
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *postHandler) get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Post not found."})
			return
		}
		logger.Errorf("Error fetching post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error while fetching post."})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *postHandler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post update."})
		return
	}
	ident, _ := middleware.IdentityFrom(c)
	err := h.svc.Update(c.Request.Context(), c.Param("id"), ident.ID, post.Changes{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully."})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post update."})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found."})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized to edit this post."})
	default:
		logger.Errorf("Error updating post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error while updating post."})
	}
}

func (h *postHandler) delete(c *gin.Context) {
	ident, _ := middleware.IdentityFrom(c)
	err := h.svc.Delete(c.Request.Context(), c.Param("id"), ident.ID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully."})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found."})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized to delete this post."})
	default:
		logger.Errorf("Error deleting post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error while deleting post."})
	}
}
