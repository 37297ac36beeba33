package users

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jsonlify-backend/internal/shared/server/middleware"
	"jsonlify-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.POST("/auth/logout", h.logout)
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	if strings.HasPrefix(userID, "guest:") {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if err == ErrNotFound {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"role":       user.Role,
		"fullName":   user.FullName,
		"pictureUrl": user.PictureURL,
	})
}

// logout clears the auth cookie. Bearer tokens simply expire client side.
func (h *Handler) logout(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	respond.OK(c, gin.H{"loggedOut": true})
}
