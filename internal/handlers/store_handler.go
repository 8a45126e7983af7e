package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"recitation-service/internal/economy"
	"recitation-service/internal/repository"
	"recitation-service/internal/service"
)

type StoreHandler struct {
	Service *service.StoreService
}

func NewStoreHandler(s *service.StoreService) *StoreHandler {
	return &StoreHandler{Service: s}
}

// Catalog lists the store for one player with owned/affordable flags.
func (h *StoreHandler) Catalog(c *gin.Context) {
	view, err := h.Service.Catalog(context.Background(), c.Query("player"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyName):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrPlayerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, view)
}

// Purchase runs one store transaction for a player.
func (h *StoreHandler) Purchase(c *gin.Context) {
	var req struct {
		Player string `json:"player" binding:"required"`
		ItemID string `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	result, err := h.Service.Purchase(context.Background(), req.Player, req.ItemID)
	if err != nil {
		switch {
		case errors.Is(err, economy.ErrAlreadyOwned), errors.Is(err, economy.ErrInsufficientFunds):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrItemNotFound), errors.Is(err, repository.ErrPlayerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrEmptyName):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}
