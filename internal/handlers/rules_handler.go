package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recitation-service/internal/models"
)

// RulesHandler exposes the active rule table so the client can render
// allowed pages and the default question count.
type RulesHandler struct {
	Rules *models.RuleTable
}

func NewRulesHandler(rules *models.RuleTable) *RulesHandler {
	return &RulesHandler{Rules: rules}
}

func (h *RulesHandler) GetRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"allowed_pages":         h.Rules.AllowedPages,
		"questions_per_session": h.Rules.QuestionsPerSession,
		"level_curve":           h.Rules.LevelCurve,
	})
}
