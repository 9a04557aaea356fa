package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/vocmoney/pipeline/internal/config"
	"github.com/vocmoney/pipeline/internal/domain/article"
	"github.com/vocmoney/pipeline/pkg/logger"
)

// Some feed hosts reject unknown clients, so requests go out with a browser
// User-Agent.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const fetchTimeout = 30 * time.Second

type Fetcher struct {
	parser *gofeed.Parser
	http   *http.Client
	log    logger.Logger
}

func NewFetcher(log logger.Logger) *Fetcher {
	return &Fetcher{
		parser: gofeed.NewParser(),
		http:   &http.Client{Timeout: fetchTimeout},
		log:    log,
	}
}

// Fetch pulls every URL of one configured feed and maps the items to
// pipeline articles. A failing URL is logged and skipped; the remaining URLs
// still contribute items.
func (f *Fetcher) Fetch(ctx context.Context, key string, fc config.FeedConfig) ([]*article.Article, error) {
	var articles []*article.Article
	var lastErr error

	for _, feedURL := range fc.URLs {
		parsed, err := f.fetchOne(ctx, feedURL)
		if err != nil {
			lastErr = err
			f.log.Warn("feed fetch failed", zap.String("feed", key), zap.String("url", feedURL), zap.Error(err))
			continue
		}

		for _, item := range parsed.Items {
			articles = append(articles, mapItem(key, fc, item))
		}
	}

	if len(articles) == 0 && lastErr != nil {
		return nil, lastErr
	}
	f.log.Info("feed fetched", zap.String("feed", key), zap.Int("items", len(articles)))
	return articles, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bad feed URL %s: %w", feedURL, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: status %d", feedURL, resp.StatusCode)
	}
	return f.parser.Parse(resp.Body)
}

func mapItem(key string, fc config.FeedConfig, item *gofeed.Item) *article.Article {
	guid := item.GUID
	if guid == "" {
		guid = item.Link
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}

	a := &article.Article{
		ID:         uuid.New(),
		FeedKey:    key,
		SourceName: fc.SourceName,
		GUID:       guid,
		Title:      item.Title,
		Content:    content,
		Link:       item.Link,
		Category:   fc.Category,
		CreatedAt:  time.Now().UTC(),
	}
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		a.PublishedAt = &t
	}

	if item.Image != nil && item.Image.URL != "" {
		a.ImageURL = item.Image.URL
		a.ImageAlt = item.Image.Title
	} else {
		for _, enc := range item.Enclosures {
			if enc.URL != "" {
				a.ImageURL = enc.URL
				break
			}
		}
	}
	return a
}
