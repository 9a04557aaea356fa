package service

import (
	"context"

	"github.com/vocmoney/pipeline/internal/config"
	"github.com/vocmoney/pipeline/internal/domain/article"
)

type FeedFetcher interface {
	Fetch(ctx context.Context, key string, fc config.FeedConfig) ([]*article.Article, error)
}
