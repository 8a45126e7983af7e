package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"recitation-service/internal/repository"
	"recitation-service/internal/service"
)

type PlayerHandler struct {
	Service *service.PlayerService
}

func NewPlayerHandler(s *service.PlayerService) *PlayerHandler {
	return &PlayerHandler{Service: s}
}

// Login identifies a learner by display name and returns the profile
// projection the start screen renders.
func (h *PlayerHandler) Login(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	view, err := h.Service.Login(context.Background(), req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmptyName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetProfile returns the stored profile for a known name.
func (h *PlayerHandler) GetProfile(c *gin.Context) {
	view, err := h.Service.Profile(context.Background(), c.Param("name"))
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
			return
		}
		if errors.Is(err, service.ErrEmptyName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}
