package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripstream/internal/app/models"
)

type Handler struct {
	store  Store
	logger *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// ListUsers handles GET /api/users.
func (h *Handler) ListUsers(c *gin.Context) {
	profiles, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list profiles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read users data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles})
}

// GetUser handles GET /api/users/:userId.
func (h *Handler) GetUser(c *gin.Context) {
	id := c.Param("userId")
	profile, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Error("Failed to get profile", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read users data"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CreateUser handles POST /api/users. The id is always assigned by the
// store; any id in the payload is ignored.
func (h *Handler) CreateUser(c *gin.Context) {
	var profile models.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := h.store.Create(c.Request.Context(), profile)
	if err != nil {
		h.logger.Error("Failed to create profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateUser handles PUT /api/users/:userId.
func (h *Handler) UpdateUser(c *gin.Context) {
	id := c.Param("userId")

	var profile models.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.store.Update(c.Request.Context(), id, profile)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Error("Failed to update profile", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteUser handles DELETE /api/users/:userId and returns the removed
// profile.
func (h *Handler) DeleteUser(c *gin.Context) {
	id := c.Param("userId")
	deleted, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Error("Failed to delete profile", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
