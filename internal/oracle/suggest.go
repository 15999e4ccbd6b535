package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/willemhelmet/prompt-pugalists/internal/constants"
	"github.com/willemhelmet/prompt-pugalists/internal/logging"
)

// SuggestCharacter invents a fresh fighter description from random
// inspiration themes.
func (c *Client) SuggestCharacter(ctx context.Context) (string, error) {
	themes := pickRandomThemes(3)
	prompt := fmt.Sprintf(`Invent an original fighting game character. Draw loose inspiration from these themes: %s. Describe them in 2-3 vivid sentences optimized for AI image generation: appearance, clothing, weapon or power, one distinctive visual quirk. Output ONLY the description, no name prefix, no quotes. Stay under 500 characters.`, strings.Join(themes, ", "))

	content, err := c.chat(ctx, constants.MistralSuggestModel, []chatMessage{
		{Role: "user", Content: prompt},
	}, false, 1.0, 300)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// SuggestEnvironment invents a fresh battle arena description.
func (c *Client) SuggestEnvironment(ctx context.Context) (string, error) {
	themes := pickRandomThemes(2)
	prompt := fmt.Sprintf(`Invent an original fighting game battle arena. Draw loose inspiration from these themes: %s. Describe it in 2-3 cinematic sentences optimized for AI image and video generation: setting, lighting, atmosphere, one dramatic environmental feature. Output ONLY the description, no name prefix, no quotes. Stay under 300 characters.`, strings.Join(themes, ", "))

	content, err := c.chat(ctx, constants.MistralSuggestModel, []chatMessage{
		{Role: "user", Content: prompt},
	}, false, 1.0, 200)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// EnhanceCharacterPrompt rewrites a rough character description with the
// visual detail image models need. Returns the input unchanged on failure.
func (c *Client) EnhanceCharacterPrompt(ctx context.Context, rough string) string {
	content, err := c.chat(ctx, constants.MistralSuggestModel, []chatMessage{
		{Role: "system", Content: c.characterEnhancePrompt},
		{Role: "user", Content: rough},
	}, false, 0.8, 300)
	if err != nil {
		logging.Warn("character prompt enhancement failed; passing through", nil)
		return rough
	}
	return strings.TrimSpace(content)
}

// EnhanceEnvironmentPrompt rewrites a rough arena description. Returns the
// input unchanged on failure.
func (c *Client) EnhanceEnvironmentPrompt(ctx context.Context, rough string) string {
	content, err := c.chat(ctx, constants.MistralSuggestModel, []chatMessage{
		{Role: "system", Content: c.environmentEnhancePrompt},
		{Role: "user", Content: rough},
	}, false, 0.8, 200)
	if err != nil {
		logging.Warn("environment prompt enhancement failed; passing through", nil)
		return rough
	}
	return strings.TrimSpace(content)
}

// VisualFingerprint extracts a dense appearance description from a character
// image using the vision model. Returns the empty string on failure; callers
// fall back to the character's text prompt.
func (c *Client) VisualFingerprint(ctx context.Context, imageURL string) string {
	messages := []chatMessage{
		{
			Role: "user",
			Content: []map[string]interface{}{
				{
					"type": "text",
					"text": "Describe this fighting game character's visual appearance in exhaustive detail for use in video generation prompts: body type, face, hair, skin, clothing with colors and materials, weapons, accessories, aura or magical effects, and overall silhouette. Write one dense paragraph. Output ONLY the description.",
				},
				{
					"type":      "image_url",
					"image_url": imageURL,
				},
			},
		},
	}

	content, err := c.chat(ctx, constants.MistralFingerprintModel, messages, false, 0.3, 500)
	if err != nil {
		logging.Warn("visual fingerprint extraction failed", logging.Fields{constants.LogFieldModel: constants.MistralFingerprintModel})
		return ""
	}
	return strings.TrimSpace(content)
}
