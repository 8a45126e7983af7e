package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"recitation-service/internal/content"
	"recitation-service/internal/quiz"
	"recitation-service/internal/service"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(s *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: s}
}

// Start opens a play-through for a page. questions_count 0 falls back
// to the rule table default.
func (h *SessionHandler) Start(c *gin.Context) {
	var req struct {
		UserName       string `json:"user_name" binding:"required"`
		PageID         string `json:"page_id" binding:"required"`
		QuestionsCount int    `json:"questions_count"`
		Narrator       string `json:"narrator"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	if req.Narrator == "" {
		req.Narrator = "ar.alafasy"
	}

	result, err := h.Service.Start(context.Background(), req.UserName, req.PageID, req.QuestionsCount, req.Narrator)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrEmptyName),
			errors.Is(err, service.ErrPageNotAllowed),
			errors.Is(err, quiz.ErrInvalidConfiguration):
			status = http.StatusBadRequest
		case errors.Is(err, content.ErrContentUnavailable):
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Question returns the pending question of a live session.
func (h *SessionHandler) Question(c *gin.Context) {
	question, progress, err := h.Service.Question(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": question, "progress": progress})
}

// Answer submits one choice; the response carries the outcome and
// either the next question or the final summary with the mistakes
// review payload.
func (h *SessionHandler) Answer(c *gin.Context) {
	var req struct {
		Choice string `json:"choice" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer format", "details": err.Error()})
		return
	}

	result, err := h.Service.Answer(context.Background(), c.Param("id"), req.Choice)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case errors.Is(err, quiz.ErrSessionAlreadyEnded):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}
