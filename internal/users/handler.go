package users

import (
	"errors"
	"net/http"

	"github.com/devblog/devblog-api/pkg/logger"
	"github.com/devblog/devblog-api/pkg/middleware"
	"github.com/gin-gonic/gin"
)

type profileRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// RegisterUserRoutes mounts the profile API under /api/user.
func RegisterUserRoutes(r gin.IRouter, svc *Service, auth gin.HandlerFunc) {
	g := r.Group("/api/user")
	g.PATCH("", auth, func(c *gin.Context) {
		var req profileRequest
		// a missing or malformed body fails the email check below
		_ = c.ShouldBindJSON(&req)
		ident, _ := middleware.IdentityFrom(c)
		err := svc.UpdateProfile(c.Request.Context(), ident.ID, req.DisplayName, req.Email)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"message": "Verification email sent."})
		case errors.Is(err, ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email format."})
		case errors.Is(err, ErrInvalidDisplayName):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid display name."})
		default:
			logger.Errorf("Error updating profile: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
		}
	})

	g.GET("/verify-email", func(c *gin.Context) {
		_, err := svc.RedeemVerification(c.Request.Context(), c.Query("token"))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully."})
		case errors.Is(err, ErrInvalidToken):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired token."})
		default:
			logger.Errorf("Error verifying email: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
		}
	})

	g.GET("/me", auth, func(c *gin.Context) {
		ident, _ := middleware.IdentityFrom(c)
		u, err := svc.EnsureUser(c.Request.Context(), ident.ID, ident.Name, middleware.ClaimString(c, "email"))
		if err != nil {
			logger.Errorf("Error loading user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":           u.ID,
			"displayName":  u.DisplayName,
			"email":        u.Email,
			"pendingEmail": u.PendingEmail,
		})
	})
}
