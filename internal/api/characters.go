package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/willemhelmet/prompt-pugalists/internal/constants"
	"github.com/willemhelmet/prompt-pugalists/internal/game"
	"github.com/willemhelmet/prompt-pugalists/internal/logging"
	"github.com/willemhelmet/prompt-pugalists/internal/storage"
)

// CharacterHandler serves the persisted character CRUD surface.
type CharacterHandler struct {
	repo storage.Repository
}

func NewCharacterHandler(repo storage.Repository) *CharacterHandler {
	return &CharacterHandler{repo: repo}
}

type characterPayload struct {
	Name              string `json:"name"`
	ImageURL          string `json:"image_url"`
	TextPrompt        string `json:"text_prompt"`
	ReferenceImageURL string `json:"reference_image_url"`
}

// ListCharacters returns the caller's characters, newest first.
func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	chars, err := h.repo.ListCharactersByUser(currentUserID(c))
	if err != nil {
		logging.Error("failed to list characters", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchChars})
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": chars})
}

// GetCharacter returns one character. Any authenticated session may read any
// character; opponents need each other's fighters for battle display.
func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	char, err := h.repo.GetCharacter(c.Param("characterID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrCharacterNotFound})
		return
	}
	c.JSON(http.StatusOK, char)
}

// CreateCharacter stores a new fighter owned by the calling session.
func (h *CharacterHandler) CreateCharacter(c *gin.Context) {
	var req characterPayload
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	now := time.Now()
	char := &game.Character{
		ID:                uuid.NewString(),
		UserID:            currentUserID(c),
		Name:              strings.TrimSpace(req.Name),
		ImageURL:          req.ImageURL,
		TextPrompt:        req.TextPrompt,
		ReferenceImageURL: req.ReferenceImageURL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := h.repo.CreateCharacter(char); err != nil {
		logging.Error("failed to create character", err, logging.Fields{constants.LogFieldName: char.Name})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedCreateChar})
		return
	}
	c.JSON(http.StatusCreated, char)
}

// UpdateCharacter overwrites an owned character's mutable fields. Changing
// the image invalidates the cached visual fingerprint.
func (h *CharacterHandler) UpdateCharacter(c *gin.Context) {
	char, err := h.repo.GetCharacter(c.Param("characterID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrCharacterNotFound})
		return
	}
	if char.UserID != currentUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrCharacterNotFound})
		return
	}

	var req characterPayload
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	if req.ImageURL != char.ImageURL {
		char.VisualFingerprint = ""
	}
	char.Name = strings.TrimSpace(req.Name)
	char.ImageURL = req.ImageURL
	char.TextPrompt = req.TextPrompt
	char.ReferenceImageURL = req.ReferenceImageURL
	char.UpdatedAt = time.Now()

	if err := h.repo.UpdateCharacter(char); err != nil {
		logging.Error("failed to update character", err, logging.Fields{constants.LogFieldCharID: char.ID})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedUpdateChar})
		return
	}
	c.JSON(http.StatusOK, char)
}

// DeleteCharacter removes an owned character.
func (h *CharacterHandler) DeleteCharacter(c *gin.Context) {
	err := h.repo.DeleteCharacter(c.Param("characterID"), currentUserID(c))
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrCharacterNotFound})
			return
		}
		logging.Error("failed to delete character", err, logging.Fields{constants.LogFieldCharID: c.Param("characterID")})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedDeleteChar})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyMessage: "deleted"})
}
