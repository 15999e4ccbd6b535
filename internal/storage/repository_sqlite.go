package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/willemhelmet/prompt-pugalists/internal/game"
)

var ErrNotFound = errors.New("record not found")

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) GetCharacter(id string) (*game.Character, error) {
	var c game.Character
	if err := r.db.First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) ListCharactersByUser(userID string) ([]game.Character, error) {
	var out []game.Character
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sqliteRepository) CreateCharacter(c *game.Character) error {
	return r.db.Create(c).Error
}

func (r *sqliteRepository) UpdateCharacter(c *game.Character) error {
	return r.db.Save(c).Error
}

func (r *sqliteRepository) DeleteCharacter(id, userID string) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&game.Character{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteRepository) SaveVisualFingerprint(id, fingerprint string) error {
	return r.db.Model(&game.Character{}).Where("id = ?", id).Update("visual_fingerprint", fingerprint).Error
}
