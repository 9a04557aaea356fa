package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocmoney/pipeline/internal/application/service"
	"github.com/vocmoney/pipeline/internal/config"
	"github.com/vocmoney/pipeline/internal/domain/article"
	"github.com/vocmoney/pipeline/pkg/logger"
)

type fakeFetcher struct {
	articles map[string][]*article.Article
	errs     map[string]error
	order    []string
}

func (f *fakeFetcher) Fetch(_ context.Context, key string, _ config.FeedConfig) ([]*article.Article, error) {
	f.order = append(f.order, key)
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.articles[key], nil
}

func pipelineConfig(feeds []string, order []string, maxPerFeed int) config.Config {
	cfg := config.Config{}
	cfg.Pipeline.Feeds = make(map[string]config.FeedConfig, len(feeds))
	for _, key := range feeds {
		cfg.Pipeline.Feeds[key] = config.FeedConfig{URLs: []string{"https://feeds.example/" + key}}
	}
	cfg.Pipeline.Order = order
	cfg.Schedule.MaxArticlesPerFeed = maxPerFeed
	return cfg
}

func feedArticles(feed string, guids ...string) []*article.Article {
	out := make([]*article.Article, 0, len(guids))
	for _, g := range guids {
		a := sampleArticle()
		a.FeedKey = feed
		a.GUID = g
		out = append(out, a)
	}
	return out
}

func newRunUseCase(fetcher service.FeedFetcher, repo *fakeRepo, wp *fakePublisher, cfg config.Config) *RunPipelineUseCase {
	rw := &fakeRewriter{out: &service.Rewritten{Title: "t", Content: "<p>c</p>"}}
	pub := newUseCase(repo, nil, rw, wp, ImagesModeHotlink)
	return NewRunPipelineUseCase(fetcher, pub, repo, cfg, logger.NewNop())
}

func TestFeedOrder_ConfiguredFirstThenAlphabetical(t *testing.T) {
	cfg := pipelineConfig(
		[]string{"zeta", "alpha", "ole_primera", "bbc_football"},
		[]string{"ole_primera", "bbc_football", "ole_primera"},
		0,
	)
	uc := NewRunPipelineUseCase(nil, nil, nil, cfg, logger.NewNop())

	assert.Equal(t, []string{"ole_primera", "bbc_football", "alpha", "zeta"}, uc.feedOrder())
}

func TestExecute_CapsPublishesPerFeedAndSkipsDuplicates(t *testing.T) {
	cfg := pipelineConfig([]string{"feed_a"}, []string{"feed_a"}, 2)

	repo := &fakeRepo{existing: map[string]bool{"a2": true}}
	wp := &fakePublisher{nextID: 1}
	fetcher := &fakeFetcher{articles: map[string][]*article.Article{
		// a2 is already recorded; the cap counts successes only, so a1, a3
		// and a4 are attempted and a5 never is.
		"feed_a": feedArticles("feed_a", "a1", "a2", "a3", "a4", "a5"),
	}}

	uc := newRunUseCase(fetcher, repo, wp, cfg)
	require.NoError(t, uc.Execute(context.Background()))

	require.Len(t, repo.saved, 2)
	assert.Equal(t, "a1", repo.saved[0].GUID)
	assert.Equal(t, "a3", repo.saved[1].GUID)
}

func TestExecute_FeedFailureDoesNotStopThePass(t *testing.T) {
	cfg := pipelineConfig([]string{"broken", "healthy"}, []string{"broken", "healthy"}, 0)

	repo := &fakeRepo{existing: map[string]bool{}}
	wp := &fakePublisher{nextID: 1}
	fetcher := &fakeFetcher{
		errs:     map[string]error{"broken": errors.New("feed unreachable")},
		articles: map[string][]*article.Article{"healthy": feedArticles("healthy", "h1")},
	}

	uc := newRunUseCase(fetcher, repo, wp, cfg)
	require.NoError(t, uc.Execute(context.Background()))

	assert.Equal(t, []string{"broken", "healthy"}, fetcher.order)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "h1", repo.saved[0].GUID)
}

func TestExecute_CancelledContextStopsPass(t *testing.T) {
	cfg := pipelineConfig([]string{"feed_a"}, []string{"feed_a"}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &fakeRepo{existing: map[string]bool{}}
	fetcher := &fakeFetcher{errs: map[string]error{"feed_a": ctx.Err()}}

	uc := newRunUseCase(fetcher, repo, &fakePublisher{nextID: 1}, cfg)
	assert.ErrorIs(t, uc.Execute(ctx), context.Canceled)
}
