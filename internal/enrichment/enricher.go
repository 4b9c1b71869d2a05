package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/entity"
	"github.com/user/invite-harvester/internal/extractor"
)

// ErrEmptyGeneration means the model answered with no text.
var ErrEmptyGeneration = errors.New("model returned no text")

// TextGenerator produces text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Enricher builds content around validated groups.
type Enricher struct {
	generator TextGenerator
	logger    *zap.Logger
}

func NewEnricher(g TextGenerator, logger *zap.Logger) *Enricher {
	return &Enricher{generator: g, logger: logger}
}

// Article generates the long-form article for req.
func (e *Enricher) Article(ctx context.Context, req ArticleRequest) (string, error) {
	if len(entity.ActiveOnly(req.Groups)) == 0 {
		return "", fmt.Errorf("no active groups to write about")
	}
	prompt, err := BuildArticlePrompt(req)
	if err != nil {
		return "", err
	}
	text, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate article: %w", err)
	}
	return text, nil
}

// DescribeGroups attaches a generated description to every Active record
// that has none. A failed generation leaves that record as it was.
func (e *Enricher) DescribeGroups(ctx context.Context, records []entity.GroupRecord) []entity.GroupRecord {
	out := make([]entity.GroupRecord, len(records))
	for i, r := range records {
		out[i] = r
		if !r.IsActive() || r.Description != "" {
			continue
		}
		text, err := e.generator.Generate(ctx, DescriptionPrompt(r))
		if err != nil {
			e.logger.Warn("description generation failed", zap.String("link", r.Link.String()), zap.Error(err))
			continue
		}
		out[i] = r.WithDescription(extractor.Truncate(strings.TrimSpace(text), extractor.MaxDescriptionLength))
	}
	return out
}
