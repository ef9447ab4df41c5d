package types

import "time"

// Recipe status lifecycle: pending -> completed | error.
const (
	RecipeStatusPending   = "pending"
	RecipeStatusCompleted = "completed"
	RecipeStatusError     = "error"
)

// RecipeParts holds the structured fields parsed out of generated recipe text.
type RecipeParts struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
	ImagePrompt  string `json:"image_prompt"`
	MacroPrompt  string `json:"macro_prompt"`
	Hashtags     string `json:"hashtags"`
}

// Recipe is a session recipe record held in the rolling history.
type Recipe struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Status          string       `json:"status"`
	ImageURL        string       `json:"image_url,omitempty"`
	Content         string       `json:"content,omitempty"`
	ParsedContent   *RecipeParts `json:"parsed_content,omitempty"`
	TemplateID      string       `json:"template_id,omitempty"`
	TemplatedImage  string       `json:"templated_image_url,omitempty"`
	TemplateApplied bool         `json:"template_applied,omitempty"`
	Error           string       `json:"error,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// PlagiarismMatch is one matched source in a plagiarism result.
type PlagiarismMatch struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"` // 0..1
	Details    struct {
		Identical int `json:"identical"`
		Similar   int `json:"similar"`
		Total     int `json:"total"`
	} `json:"details"`
}

// PlagiarismStats carries the provider's aggregate counters.
type PlagiarismStats struct {
	CreditsUsed      int `json:"credits_used"`
	CreditsRemaining int `json:"credits_remaining"`
	WordCount        int `json:"word_count"`
	PlagiarizedWords int `json:"plagiarized_words"`
}

// PlagiarismResult is the normalized outcome of a plagiarism check.
// Scores are in [0,1]; the provider reports 0-100.
type PlagiarismResult struct {
	Score   float64           `json:"score"`
	Matches []PlagiarismMatch `json:"matches"`
	Stats   PlagiarismStats   `json:"stats"`
}

// PlagiarizedSection pairs known-plagiarized text with its source, for the
// content rewriter.
type PlagiarizedSection struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// BacklinkOptions configures backlink insertion during a rewrite.
type BacklinkOptions struct {
	WebsiteDomain string `json:"website_domain"`
	WordsPerLink  int    `json:"words_per_link"`
	MaxLinks      int    `json:"max_links"`
}

// TokenPackage is one entry of the fixed purchase catalog.
type TokenPackage struct {
	ID     string  `json:"id"`
	Tokens int     `json:"tokens"`
	Price  float64 `json:"price"`
}

// TokenPackages is the fixed catalog of purchasable token packages.
var TokenPackages = []TokenPackage{
	{ID: "starter", Tokens: 50, Price: 5.00},
	{ID: "creator", Tokens: 120, Price: 10.00},
	{ID: "studio", Tokens: 300, Price: 20.00},
	{ID: "agency", Tokens: 1000, Price: 50.00},
}
