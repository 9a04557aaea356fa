package service

import (
	"context"

	"github.com/vocmoney/pipeline/internal/domain/article"
)

// Rewritten is the generative-rewrite output for one source article.
type Rewritten struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type Rewriter interface {
	Rewrite(ctx context.Context, a *article.Article) (*Rewritten, error)
}
