package publish

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/vocmoney/pipeline/adapters/event"
	"github.com/vocmoney/pipeline/adapters/wordpress"
	"github.com/vocmoney/pipeline/internal/application/service"
	"github.com/vocmoney/pipeline/internal/domain/article"
	"github.com/vocmoney/pipeline/pkg/logger"
)

var ErrAlreadyPublished = errors.New("article already published")

const (
	ImagesModeHotlink    = "hotlink"
	ImagesModeWordPress  = "wordpress"
	ImagesModeCloudinary = "cloudinary"
)

type PublishArticleUseCase struct {
	articleRepo article.Repository
	seen        service.SeenCache
	rewriter    service.Rewriter
	wp          service.Publisher
	rehoster    service.ImageRehoster
	events      *event.KafkaProducerClient
	imagesMode  string
	log         logger.Logger
}

// NewPublishArticleUseCase wires one article's path through the pipeline.
// seen, rehoster, and events may be nil; the corresponding step is skipped.
func NewPublishArticleUseCase(
	repo article.Repository,
	seen service.SeenCache,
	rewriter service.Rewriter,
	wp service.Publisher,
	rehoster service.ImageRehoster,
	events *event.KafkaProducerClient,
	imagesMode string,
	log logger.Logger,
) *PublishArticleUseCase {
	return &PublishArticleUseCase{
		articleRepo: repo,
		seen:        seen,
		rewriter:    rewriter,
		wp:          wp,
		rehoster:    rehoster,
		events:      events,
		imagesMode:  imagesMode,
		log:         log,
	}
}

// Execute rewrites and publishes one article, returning the WordPress post
// ID. ErrAlreadyPublished marks a dedup skip, not a failure.
func (uc *PublishArticleUseCase) Execute(ctx context.Context, a *article.Article) (int, error) {
	if uc.seen != nil && uc.seen.Seen(ctx, a.GUID) {
		return 0, ErrAlreadyPublished
	}
	exists, err := uc.articleRepo.ExistsByGUID(ctx, a.GUID)
	if err != nil {
		return 0, err
	}
	if exists {
		if uc.seen != nil {
			uc.seen.MarkSeen(ctx, a.GUID)
		}
		return 0, ErrAlreadyPublished
	}

	rewritten, err := uc.rewriter.Rewrite(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("rewrite failed for %q: %w", a.Title, err)
	}

	payload := &wordpress.PostPayload{
		Title:      rewritten.Title,
		Content:    rewritten.Content,
		Categories: wordpress.ByNames([]string{a.Category}),
		Tags:       wordpress.ByNames(rewritten.Tags),
	}

	uc.attachImage(ctx, a, payload)
	payload.Content += attributionLine(a)

	postID, err := uc.wp.CreatePost(ctx, payload)
	if err != nil {
		return 0, fmt.Errorf("post creation failed for %q: %w", rewritten.Title, err)
	}

	now := time.Now().UTC()
	a.WPPostID = postID
	a.Tags = rewritten.Tags
	a.PublishedAt = &now

	if err := uc.articleRepo.Save(ctx, a); err != nil {
		// The post is live; losing the record only risks a duplicate later.
		uc.log.Error("failed to record published article", err, zap.String("guid", a.GUID))
	}
	if uc.seen != nil {
		uc.seen.MarkSeen(ctx, a.GUID)
	}

	if uc.events != nil {
		eventPayload := event.PostEventPayload{
			EventType:   event.EventTypePostPublished,
			ArticleID:   a.ID,
			FeedKey:     a.FeedKey,
			SourceName:  a.SourceName,
			WPPostID:    postID,
			Title:       rewritten.Title,
			PublishedAt: now,
		}
		if err := uc.events.PublishPostEvent(ctx, eventPayload); err != nil {
			uc.log.Warn("failed to publish post event", zap.Int("wp_post_id", postID), zap.Error(err))
		}
	}

	uc.log.Info("article published",
		zap.String("feed", a.FeedKey),
		zap.Int("wp_post_id", postID),
		zap.String("title", rewritten.Title))
	return postID, nil
}

// attachImage applies the configured images mode. Image failures never block
// the post; it goes out without an image.
func (uc *PublishArticleUseCase) attachImage(ctx context.Context, a *article.Article, payload *wordpress.PostPayload) {
	if a.ImageURL == "" {
		return
	}

	switch uc.imagesMode {
	case ImagesModeWordPress:
		media, err := uc.wp.UploadFromURL(ctx, a.ImageURL, a.ImageAlt)
		if err != nil {
			uc.log.Warn("media upload failed, publishing without image",
				zap.String("url", a.ImageURL), zap.Error(err))
			return
		}
		payload.FeaturedMedia = media.ID
	case ImagesModeCloudinary:
		if uc.rehoster == nil {
			uc.log.Warn("images_mode is cloudinary but no rehoster is configured")
			return
		}
		hosted, err := uc.rehoster.Rehost(ctx, a.ImageURL, a.ID.String())
		if err != nil {
			uc.log.Warn("image rehost failed, publishing without image",
				zap.String("url", a.ImageURL), zap.Error(err))
			return
		}
		payload.Content = imageTag(hosted, a.ImageAlt) + payload.Content
	default: // hotlink
		payload.Content = imageTag(a.ImageURL, a.ImageAlt) + payload.Content
	}
}

func imageTag(src, alt string) string {
	return fmt.Sprintf("<figure><img src=%q alt=%q /></figure>\n", src, alt)
}

func attributionLine(a *article.Article) string {
	domain := a.SourceName
	if u, err := url.Parse(a.Link); err == nil && u.Host != "" {
		domain = u.Host
	}
	return fmt.Sprintf("\n<p><em>Fonte: %s</em></p>", domain)
}
