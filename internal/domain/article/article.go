package article

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrArticleNotFound = errors.New("article not found")

// Article is one source item flowing through the pipeline: parsed from a
// feed, rewritten, then published to WordPress.
type Article struct {
	ID          uuid.UUID  `json:"id"`
	FeedKey     string     `json:"feed_key"`
	SourceName  string     `json:"source_name"`
	GUID        string     `json:"guid"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Link        string     `json:"link"`
	ImageURL    string     `json:"image_url"`
	ImageAlt    string     `json:"image_alt"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	WPPostID    int        `json:"wp_post_id"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Repository interface {
	Save(ctx context.Context, a *Article) error
	ExistsByGUID(ctx context.Context, guid string) (bool, error)
	ListRecent(ctx context.Context, limit int) ([]*Article, error)
	CountPublished(ctx context.Context) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
