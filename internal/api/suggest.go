package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/willemhelmet/prompt-pugalists/internal/constants"
	"github.com/willemhelmet/prompt-pugalists/internal/logging"
)

// Suggester is the subset of the oracle client used by the creative helper
// endpoints.
type Suggester interface {
	SuggestCharacter(ctx context.Context) (string, error)
	SuggestEnvironment(ctx context.Context) (string, error)
	EnhanceCharacterPrompt(ctx context.Context, rough string) string
	EnhanceEnvironmentPrompt(ctx context.Context, rough string) string
}

// SuggestHandler serves the "surprise me" and prompt enhancement endpoints.
type SuggestHandler struct {
	oracle Suggester
}

func NewSuggestHandler(oracle Suggester) *SuggestHandler {
	return &SuggestHandler{oracle: oracle}
}

func (h *SuggestHandler) SuggestCharacter(c *gin.Context) {
	text, err := h.oracle.SuggestCharacter(c.Request.Context())
	if err != nil {
		logging.Error("character suggestion failed", err, nil)
		c.JSON(http.StatusBadGateway, gin.H{constants.JSONKeyError: constants.ErrFailedSuggest})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": text})
}

func (h *SuggestHandler) SuggestEnvironment(c *gin.Context) {
	text, err := h.oracle.SuggestEnvironment(c.Request.Context())
	if err != nil {
		logging.Error("environment suggestion failed", err, nil)
		c.JSON(http.StatusBadGateway, gin.H{constants.JSONKeyError: constants.ErrFailedSuggest})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": text})
}

type enhanceRequest struct {
	Prompt string `json:"prompt"`
}

// EnhanceCharacter rewrites a rough character description with image-model
// detail. Enhancement degrades to pass-through, so this never 502s.
func (h *SuggestHandler) EnhanceCharacter(c *gin.Context) {
	var req enhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enhanced": h.oracle.EnhanceCharacterPrompt(c.Request.Context(), req.Prompt)})
}

func (h *SuggestHandler) EnhanceEnvironment(c *gin.Context) {
	var req enhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enhanced": h.oracle.EnhanceEnvironmentPrompt(c.Request.Context(), req.Prompt)})
}
