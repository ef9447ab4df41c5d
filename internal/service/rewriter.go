package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/chefscript/backend/internal/types"
)

// maxChunkLength bounds how much HTML is sent to the model per request.
const maxChunkLength = 12000

var paragraphPattern = regexp.MustCompile(`(?is)<p\b[^>]*>.*?</p>`)

// SplitHTML splits HTML into chunks of whole paragraphs. Paragraphs are
// greedily packed into the current chunk until adding the next one would
// exceed maxChunkLength; a paragraph is never split across two chunks.
func SplitHTML(html string) []string {
	paragraphs := paragraphPattern.FindAllString(html, -1)

	var chunks []string
	var current strings.Builder

	for _, p := range paragraphs {
		if current.Len() > 0 && current.Len()+len(p) > maxChunkLength {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(p)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// RewriterService rewrites plagiarized passages and injects backlinks into
// HTML content, chunk by chunk.
type RewriterService struct {
	llm *LLMService
}

// NewRewriterService creates a new RewriterService instance
func NewRewriterService(llm *LLMService) *RewriterService {
	return &RewriterService{llm: llm}
}

// Rewrite processes all chunks concurrently and reassembles them in original
// order. Any single chunk failure fails the whole rewrite.
func (s *RewriterService) Rewrite(ctx context.Context, html string, plagiarized []types.PlagiarizedSection, backlinks *types.BacklinkOptions) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("rewrite provider: %w", ErrNotConfigured)
	}
	chunks := SplitHTML(html)
	if len(chunks) == 0 {
		return "", fmt.Errorf("no paragraph content found in HTML")
	}

	processed := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			out, err := s.processChunk(gctx, chunk, i, len(chunks), plagiarized, backlinks)
			if err != nil {
				return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
			}
			processed[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	return strings.Join(processed, "\n"), nil
}

// processChunk rewrites one chunk. Plagiarism instructions are included only
// when known-plagiarized text occurs verbatim in this chunk; backlink
// instructions only when backlink options were supplied.
func (s *RewriterService) processChunk(ctx context.Context, chunk string, index, total int, plagiarized []types.PlagiarizedSection, backlinks *types.BacklinkOptions) (string, error) {
	var relevant []types.PlagiarizedSection
	for _, section := range plagiarized {
		if strings.Contains(chunk, section.Text) {
			relevant = append(relevant, section)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Process this chunk (%d/%d) of an HTML article. ", index+1, total)

	if backlinks != nil {
		sb.WriteString("Instructions:\n")
		if len(plagiarized) > 0 {
			sb.WriteString("1. Rewrite any plagiarized sections found in this chunk\n2. ")
		}
		fmt.Fprintf(&sb, `Add contextually relevant backlinks from %s
- Space links evenly (aim for one link per %d words in this chunk)
- Use the sitemap at %s/post-sitemap.xml
- Choose relevant anchor text
- Do not place links in the first paragraph of the article
- Only link to topically related content`,
			backlinks.WebsiteDomain, backlinks.WordsPerLink, backlinks.WebsiteDomain)
	} else {
		sb.WriteString("Rewrite any plagiarized sections while maintaining style and structure.")
	}

	fmt.Fprintf(&sb, "\n\nContent chunk:\n%s\n", chunk)

	if len(relevant) > 0 {
		sb.WriteString("\nPlagiarized sections in this chunk:\n")
		for i, section := range relevant {
			fmt.Fprintf(&sb, "\n[Match %d]\n%s\nSource: %s\n", i+1, section.Text, section.Source)
		}
	}

	sb.WriteString("\nRules:\n")
	if len(relevant) > 0 {
		sb.WriteString("- Rewrite the plagiarized sections\n")
	}
	sb.WriteString("- Preserve all HTML tags and structure\n- Maintain the original writing style and tone\n- Ensure content is unique and original\n")
	if backlinks != nil {
		sb.WriteString("- Add contextually relevant backlinks\n- Use natural anchor text\n- Ensure links fit the context\n")
	}
	sb.WriteString("\nReturn Format:\nReturn only the processed HTML content, maintaining all original tags and structure.")

	messages := []Message{
		{
			Role:    "system",
			Content: "You are a professional content writer and SEO expert who specializes in creating unique, engaging content with appropriate backlinks when requested.",
		},
		{
			Role:    "user",
			Content: sb.String(),
		},
	}

	content, err := s.llm.Complete(ctx, messages, 0.7, 0)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}
