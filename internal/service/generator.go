package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chefscript/backend/internal/types"
)

// GeneratorService runs the recipe generation pipeline: text, parsing, an
// image from the selected style provider, token debit and optional template
// compositing. Batches run sequentially so one user cannot saturate the
// image providers.
type GeneratorService struct {
	llm       *LLMService
	flux      *FluxService
	recraft   *RecraftService
	ledger    *TokenLedger
	history   *HistoryService
	templates *TemplateService
	images    *ImageStore
}

// NewGeneratorService creates a new GeneratorService instance
func NewGeneratorService(
	llm *LLMService,
	flux *FluxService,
	recraft *RecraftService,
	ledger *TokenLedger,
	history *HistoryService,
	templates *TemplateService,
	images *ImageStore,
) *GeneratorService {
	return &GeneratorService{
		llm:       llm,
		flux:      flux,
		recraft:   recraft,
		ledger:    ledger,
		history:   history,
		templates: templates,
		images:    images,
	}
}

// GenerateBatch runs the pipeline for each recipe name in order. The whole
// batch is checked against the user's balance up front; each image is
// debited individually as it completes. A failed recipe is recorded with
// status "error" and the loop continues with the next one.
func (s *GeneratorService) GenerateBatch(ctx context.Context, userID uuid.UUID, names []string, styleValue string, applyTemplate bool) ([]types.Recipe, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no recipe names provided")
	}
	if s.llm == nil {
		return nil, fmt.Errorf("recipe text provider: %w", ErrNotConfigured)
	}

	perRecipe := RecipeImageCost(styleValue)
	if err := s.ledger.Require(ctx, userID, perRecipe*len(names)); err != nil {
		return nil, err
	}

	recipes := make([]types.Recipe, len(names))
	for i, name := range names {
		recipes[i] = types.Recipe{
			ID:        uuid.New().String(),
			Name:      strings.TrimSpace(name),
			Status:    types.RecipeStatusPending,
			CreatedAt: time.Now().UTC(),
		}
	}
	if err := s.history.Prepend(ctx, userID, recipes); err != nil {
		return nil, fmt.Errorf("failed to record pending recipes: %w", err)
	}

	for i := range recipes {
		rec := &recipes[i]
		if err := s.generateOne(ctx, userID, rec, styleValue, perRecipe, applyTemplate); err != nil {
			log.Printf("[GeneratorService] Recipe %q failed: %v", rec.Name, err)
			rec.Status = types.RecipeStatusError
			rec.Error = err.Error()
		} else {
			rec.Status = types.RecipeStatusCompleted
		}
		if err := s.history.Update(ctx, userID, *rec); err != nil {
			log.Printf("[GeneratorService] Failed to update history for %q: %v", rec.Name, err)
		}
	}
	return recipes, nil
}

func (s *GeneratorService) generateOne(ctx context.Context, userID uuid.UUID, rec *types.Recipe, styleValue string, cost int, applyTemplate bool) error {
	text, err := s.llm.GenerateRecipe(ctx, rec.Name)
	if err != nil {
		return fmt.Errorf("text generation failed: %w", err)
	}
	rec.Content = text
	rec.ParsedContent = ParseRecipeText(text)

	prompt := rec.ParsedContent.ImagePrompt
	if prompt == "" {
		prompt = fmt.Sprintf("Professional food photography of %s, appetizing, high detail", rec.Name)
	}

	imageURL, err := s.generateImage(ctx, prompt, styleValue)
	if err != nil {
		return fmt.Errorf("image generation failed: %w", err)
	}

	// The provider URL expires; keep a durable copy. MirrorImage falls back
	// to the original URL when the upload fails.
	rec.ImageURL = imageURL
	if s.images != nil {
		mirrored, err := s.images.MirrorImage(ctx, imageURL)
		if err != nil {
			log.Printf("[GeneratorService] Failed to mirror image for %q: %v", rec.Name, err)
		} else {
			rec.ImageURL = mirrored
		}
	}

	if err := s.ledger.Debit(ctx, userID, cost); err != nil {
		return fmt.Errorf("failed to debit tokens: %w", err)
	}

	if applyTemplate {
		if err := s.applyActiveTemplate(ctx, userID, rec); err != nil {
			// Compositing is best effort; the plain image is still usable.
			log.Printf("[GeneratorService] Template compositing failed for %q: %v", rec.Name, err)
		}
	}
	return nil
}

// generateImage routes to Flux for the "flux" style and to Recraft for
// everything else. A style value containing a dash is a custom Recraft
// style id; plain values are Recraft base style names.
func (s *GeneratorService) generateImage(ctx context.Context, prompt, styleValue string) (string, error) {
	if styleValue == "flux" {
		if s.flux == nil {
			return "", fmt.Errorf("Flux provider: %w", ErrNotConfigured)
		}
		return s.flux.GenerateImage(ctx, prompt)
	}
	if s.recraft == nil {
		return "", fmt.Errorf("Recraft provider: %w", ErrNotConfigured)
	}
	opts := GenerateImageOptions{Resolution: "1024x1024", NumImages: 1}
	if strings.Contains(styleValue, "-") {
		opts.StyleID = styleValue
	} else {
		opts.Style = styleValue
	}
	return s.recraft.GenerateImage(ctx, prompt, opts)
}

func (s *GeneratorService) applyActiveTemplate(ctx context.Context, userID uuid.UUID, rec *types.Recipe) error {
	template, err := s.templates.Active(userID)
	if err != nil {
		return err
	}
	if template == nil {
		return nil
	}
	title := rec.Name
	if rec.ParsedContent != nil && rec.ParsedContent.Title != "" {
		title = rec.ParsedContent.Title
	}
	composedURL, err := s.templates.Apply(ctx, template, rec.ImageURL, title)
	if err != nil {
		return err
	}
	rec.TemplateID = template.ID.String()
	rec.TemplatedImage = composedURL
	rec.TemplateApplied = true
	return nil
}
