package fingerprint

// Package fingerprint computes and caches a character's visual fingerprint,
// the dense appearance description the engine needs to keep a fighter
// visually consistent across rounds. Extraction goes through a shared
// singleflight group so concurrent requests for the same character run the
// vision model only once.

import (
	"context"
	"strings"

	"github.com/willemhelmet/prompt-pugalists/internal/constants"
	"github.com/willemhelmet/prompt-pugalists/internal/dedupe"
	"github.com/willemhelmet/prompt-pugalists/internal/logging"
	"github.com/willemhelmet/prompt-pugalists/internal/storage"
)

// Extractor is the vision call used to derive a fingerprint from a character
// image. Satisfied by the oracle client.
type Extractor interface {
	VisualFingerprint(ctx context.Context, imageURL string) string
}

// GetOrCreate returns the stored fingerprint for the character, extracting
// and persisting one if missing. It returns the fingerprint, the source
// ("db"|"vision"|"none"). A character without an image, or a failed vision
// call, yields an empty fingerprint; callers fall back to the text prompt.
func GetOrCreate(ctx context.Context, repo storage.Repository, ext Extractor, characterID string) (string, string) {
	c, err := repo.GetCharacter(characterID)
	if err != nil {
		logging.Error("fingerprint lookup failed", err, logging.Fields{constants.LogFieldCharID: characterID})
		return "", "none"
	}
	if fp := strings.TrimSpace(c.VisualFingerprint); fp != "" {
		return fp, "db"
	}
	if c.ImageURL == "" {
		return "", "none"
	}

	ch := dedupe.FingerprintGroup.DoChan(characterID, func() (interface{}, error) {
		// Re-check inside the flight in case another goroutine already saved.
		if cur, err := repo.GetCharacter(characterID); err == nil && strings.TrimSpace(cur.VisualFingerprint) != "" {
			return cur.VisualFingerprint, nil
		}

		fp := ext.VisualFingerprint(ctx, c.ImageURL)
		if fp == "" {
			return "", nil
		}
		if err := repo.SaveVisualFingerprint(characterID, fp); err != nil {
			logging.Error("failed to save visual fingerprint", err, logging.Fields{constants.LogFieldCharID: characterID})
		}
		logging.Info("visual fingerprint extracted", logging.Fields{constants.LogFieldCharID: characterID, constants.LogFieldModel: constants.MistralFingerprintModel})
		return fp, nil
	})

	select {
	case res := <-ch:
		fp, _ := res.Val.(string)
		if fp == "" {
			return "", "none"
		}
		return fp, "vision"
	case <-ctx.Done():
		return "", "none"
	}
}
