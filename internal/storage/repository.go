package storage

import (
	"github.com/willemhelmet/prompt-pugalists/internal/game"
)

type Repository interface {
	GetCharacter(id string) (*game.Character, error)
	ListCharactersByUser(userID string) ([]game.Character, error)
	CreateCharacter(c *game.Character) error
	UpdateCharacter(c *game.Character) error
	DeleteCharacter(id, userID string) error
	// SaveVisualFingerprint stores the computed fingerprint for a character
	// without touching any other column.
	SaveVisualFingerprint(id, fingerprint string) error
}
