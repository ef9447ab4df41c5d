package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chefscript/backend/internal/types"
)

// ParseRecipeText extracts the structured recipe fields from generated text.
// Each field tries the exact bracketed marker first, then alternate labels,
// then falls back to a fixed default, so parsing never fails.
func ParseRecipeText(text string) *types.RecipeParts {
	normalized := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))

	pick := func(fallback string, markers ...string) string {
		for _, m := range markers {
			if v := extractSection(normalized, m); v != "" {
				return v
			}
		}
		return fallback
	}

	return &types.RecipeParts{
		Title:        pick("Untitled Recipe", "TITLE", "Recipe Title"),
		Description:  pick("No description available.", "DESCRIPTION", "Description"),
		Ingredients:  pick("No ingredients listed.", "INGREDIENTS", "Ingredients List"),
		Instructions: pick("No instructions available.", "INSTRUCTIONS", "Steps", "Method"),
		ImagePrompt:  pick("A beautifully plated dish from above", "TOP_VIEW_PROMPT", "Image Description"),
		MacroPrompt:  pick("A detailed close-up of the dish", "MACRO_PROMPT", "Close-up Description"),
		Hashtags:     pick("#food #recipe #cooking", "HASHTAGS", "Tags"),
	}
}

// extractSection finds one section's content. Exact [MARKER] form first, then
// a looser "Marker:" label-and-newline form.
func extractSection(text, marker string) string {
	quoted := regexp.QuoteMeta(marker)

	exact := regexp.MustCompile(fmt.Sprintf(`(?s)\[%s\]\n(.*?)(?:\n\[|\z)`, quoted))
	if m := exact.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	loose := regexp.MustCompile(fmt.Sprintf(`(?s)%s:?\s*\n(.*?)(?:\n[A-Z][A-Za-z ]+:?\n|\z)`, quoted))
	if m := loose.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	return ""
}

// DownloadableText renders a recipe's fields as plain text without the
// section markers, for export.
func DownloadableText(recipe *types.RecipeParts) string {
	return fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s\n\n%s",
		recipe.Title, recipe.Description, recipe.Ingredients, recipe.Instructions, recipe.Hashtags)
}
