package publish

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vocmoney/pipeline/internal/application/service"
	"github.com/vocmoney/pipeline/internal/config"
	"github.com/vocmoney/pipeline/internal/domain/article"
	"github.com/vocmoney/pipeline/pkg/logger"
)

type RunPipelineUseCase struct {
	fetcher     service.FeedFetcher
	publish     *PublishArticleUseCase
	articleRepo article.Repository
	cfg         config.Config
	log         logger.Logger
}

func NewRunPipelineUseCase(
	fetcher service.FeedFetcher,
	publish *PublishArticleUseCase,
	repo article.Repository,
	cfg config.Config,
	log logger.Logger,
) *RunPipelineUseCase {
	return &RunPipelineUseCase{
		fetcher:     fetcher,
		publish:     publish,
		articleRepo: repo,
		cfg:         cfg,
		log:         log,
	}
}

// Execute runs one full pass over the configured feeds: cleanup, then fetch,
// rewrite and publish a bounded number of articles per feed, pacing between
// articles and feeds. Per-article failures never stop the pass.
func (uc *RunPipelineUseCase) Execute(ctx context.Context) error {
	runID := uuid.New()
	log := uc.log.With(zap.String("run_id", runID.String()))
	log.Info("pipeline pass started")

	cutoff := time.Now().UTC().Add(-uc.cfg.Schedule.CleanupAfter)
	if deleted, err := uc.articleRepo.DeleteOlderThan(ctx, cutoff); err != nil {
		log.Warn("article cleanup failed", zap.Error(err))
	} else if deleted > 0 {
		log.Info("cleaned up old article records", zap.Int64("deleted", deleted))
	}

	published := 0
	for _, key := range uc.feedOrder() {
		fc, ok := uc.cfg.Pipeline.Feeds[key]
		if !ok {
			log.Warn("feed in pipeline order has no configuration", zap.String("feed", key))
			continue
		}

		n, err := uc.processFeed(ctx, log, key, fc)
		published += n
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("feed processing failed", err, zap.String("feed", key))
		}

		if err := sleepCtx(ctx, uc.cfg.Schedule.PerFeedDelay); err != nil {
			return err
		}
	}

	log.Info("pipeline pass finished", zap.Int("published", published))
	return nil
}

func (uc *RunPipelineUseCase) processFeed(ctx context.Context, log logger.Logger, key string, fc config.FeedConfig) (int, error) {
	articles, err := uc.fetcher.Fetch(ctx, key, fc)
	if err != nil {
		return 0, err
	}

	maxArticles := uc.cfg.Schedule.MaxArticlesPerFeed
	published := 0
	for _, a := range articles {
		if maxArticles > 0 && published >= maxArticles {
			break
		}

		_, err := uc.publish.Execute(ctx, a)
		if errors.Is(err, ErrAlreadyPublished) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return published, ctx.Err()
			}
			// Skip this article and continue the pipeline.
			log.Error("article publish failed", err,
				zap.String("feed", key), zap.String("guid", a.GUID))
			continue
		}
		published++

		if err := sleepCtx(ctx, uc.cfg.Schedule.PerArticleDelay); err != nil {
			return published, err
		}
	}
	return published, nil
}

// feedOrder honors the configured order and appends any configured feeds the
// order list missed, alphabetically for determinism.
func (uc *RunPipelineUseCase) feedOrder() []string {
	order := make([]string, 0, len(uc.cfg.Pipeline.Feeds))
	seen := make(map[string]struct{})
	for _, key := range uc.cfg.Pipeline.Order {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		order = append(order, key)
	}

	var rest []string
	for key := range uc.cfg.Pipeline.Feeds {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
