package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vocmoney/pipeline/internal/domain/article"
	"github.com/vocmoney/pipeline/pkg/apperror"
)

type postgresArticleRepo struct {
	db *pgxpool.Pool
}

func NewPostgresArticleRepo(db *pgxpool.Pool) article.Repository {
	return &postgresArticleRepo{db: db}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func scanArticle(row pgx.Row) (*article.Article, error) {
	a := &article.Article{}
	var tagsBytes []byte
	var publishedAt *time.Time

	err := row.Scan(
		&a.ID,
		&a.FeedKey,
		&a.SourceName,
		&a.GUID,
		&a.Title,
		&a.Link,
		&a.ImageURL,
		&a.Category,
		&tagsBytes,
		&a.WPPostID,
		&publishedAt,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, article.ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to scan article row: %w", err)
	}

	a.PublishedAt = publishedAt
	if err := json.Unmarshal(tagsBytes, &a.Tags); err != nil {
		a.Tags = nil
	}
	return a, nil
}

func (r *postgresArticleRepo) Save(ctx context.Context, a *article.Article) error {
	tagsBytes, err := json.Marshal(a.Tags)
	if err != nil {
		return apperror.NewInternal("failed to encode article tags", err)
	}

	query, args, err := psql.Insert("published_articles").
		Columns("id", "feed_key", "source_name", "guid", "title", "link",
			"image_url", "category", "tags", "wp_post_id", "published_at", "created_at").
		Values(a.ID, a.FeedKey, a.SourceName, a.GUID, a.Title, a.Link,
			a.ImageURL, a.Category, tagsBytes, a.WPPostID, a.PublishedAt, a.CreatedAt).
		Suffix("ON CONFLICT (guid) DO UPDATE SET wp_post_id = EXCLUDED.wp_post_id, published_at = EXCLUDED.published_at").
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build article insert", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return apperror.NewInternal("failed to save article", err)
	}
	return nil
}

func (r *postgresArticleRepo) ExistsByGUID(ctx context.Context, guid string) (bool, error) {
	query, args, err := psql.Select("1").
		From("published_articles").
		Where(sq.Eq{"guid": guid}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, apperror.NewInternal("failed to build article lookup", err)
	}

	var one int
	err = r.db.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperror.NewInternal("failed to check article existence", err)
	}
	return true, nil
}

func (r *postgresArticleRepo) ListRecent(ctx context.Context, limit int) ([]*article.Article, error) {
	query, args, err := psql.Select("id", "feed_key", "source_name", "guid", "title", "link",
		"image_url", "category", "tags", "wp_post_id", "published_at", "created_at").
		From("published_articles").
		OrderBy("published_at DESC NULLS LAST").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build recent-articles query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to list recent articles", err)
	}
	defer rows.Close()

	articles := make([]*article.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating articles", err)
	}
	return articles, nil
}

func (r *postgresArticleRepo) CountPublished(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("published_articles").ToSql()
	if err != nil {
		return 0, apperror.NewInternal("failed to build article count", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperror.NewInternal("failed to count articles", err)
	}
	return count, nil
}

func (r *postgresArticleRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := psql.Delete("published_articles").
		Where(sq.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, apperror.NewInternal("failed to build article cleanup", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, apperror.NewInternal("failed to delete old articles", err)
	}
	return tag.RowsAffected(), nil
}
