package publish

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocmoney/pipeline/adapters/wordpress"
	"github.com/vocmoney/pipeline/internal/application/service"
	"github.com/vocmoney/pipeline/internal/domain/article"
	"github.com/vocmoney/pipeline/pkg/logger"
)

type fakeRepo struct {
	existing map[string]bool
	saved    []*article.Article
	saveErr  error
}

func (f *fakeRepo) Save(_ context.Context, a *article.Article) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, a)
	return nil
}

func (f *fakeRepo) ExistsByGUID(_ context.Context, guid string) (bool, error) {
	return f.existing[guid], nil
}

func (f *fakeRepo) ListRecent(context.Context, int) ([]*article.Article, error) { return nil, nil }
func (f *fakeRepo) CountPublished(context.Context) (int, error)                 { return len(f.saved), nil }
func (f *fakeRepo) DeleteOlderThan(context.Context, time.Time) (int64, error)   { return 0, nil }

type fakeRewriter struct {
	out *service.Rewritten
	err error
}

func (f *fakeRewriter) Rewrite(context.Context, *article.Article) (*service.Rewritten, error) {
	return f.out, f.err
}

type fakePublisher struct {
	created   []*wordpress.PostPayload
	createErr error
	nextID    int

	uploaded  []string
	uploadErr error
}

func (f *fakePublisher) CreatePost(_ context.Context, p *wordpress.PostPayload) (int, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, p)
	return f.nextID, nil
}

func (f *fakePublisher) UploadFromURL(_ context.Context, imageURL, altText string) (*wordpress.Media, error) {
	f.uploaded = append(f.uploaded, imageURL)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &wordpress.Media{ID: 900, SourceURL: imageURL, AltText: altText}, nil
}

func (f *fakePublisher) Domain() string { return "site.example" }

type fakeSeen struct {
	seen map[string]bool
}

func (f *fakeSeen) Seen(_ context.Context, guid string) bool { return f.seen[guid] }
func (f *fakeSeen) MarkSeen(_ context.Context, guid string)  { f.seen[guid] = true }

func sampleArticle() *article.Article {
	return &article.Article{
		ID:         uuid.New(),
		FeedKey:    "the_guardian_football",
		SourceName: "The Guardian",
		GUID:       "guardian-123",
		Title:      "Arsenal edge City",
		Content:    "<p>original body</p>",
		Link:       "https://www.theguardian.com/football/arsenal-city",
		ImageURL:   "https://media.example/photo.jpg",
		ImageAlt:   "Arsenal players celebrate",
		Category:   "Futebol Internacional",
	}
}

func newUseCase(repo *fakeRepo, seen *fakeSeen, rw *fakeRewriter, wp *fakePublisher, mode string) *PublishArticleUseCase {
	var sc service.SeenCache
	if seen != nil {
		sc = seen
	}
	return NewPublishArticleUseCase(repo, sc, rw, wp, nil, nil, mode, logger.NewNop())
}

func TestExecute_PublishesAndRecords(t *testing.T) {
	repo := &fakeRepo{existing: map[string]bool{}}
	seen := &fakeSeen{seen: map[string]bool{}}
	rw := &fakeRewriter{out: &service.Rewritten{
		Title:   "Arsenal vence o City em clássico tenso",
		Content: "<p>corpo reescrito</p>",
		Tags:    []string{"Arsenal", "Premier League"},
	}}
	wp := &fakePublisher{nextID: 321}

	a := sampleArticle()
	uc := newUseCase(repo, seen, rw, wp, ImagesModeHotlink)

	postID, err := uc.Execute(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, 321, postID)

	require.Len(t, wp.created, 1)
	payload := wp.created[0]
	assert.Equal(t, rw.out.Title, payload.Title)
	assert.Equal(t, wordpress.ByNames([]string{"Futebol Internacional"}), payload.Categories)
	assert.Equal(t, wordpress.ByNames([]string{"Arsenal", "Premier League"}), payload.Tags)

	// Hotlink mode embeds the source image and the attribution carries the
	// source domain parsed from the article link.
	assert.Contains(t, payload.Content, `src="https://media.example/photo.jpg"`)
	assert.Contains(t, payload.Content, "Fonte: www.theguardian.com")

	require.Len(t, repo.saved, 1)
	assert.Equal(t, 321, repo.saved[0].WPPostID)
	assert.Equal(t, rw.out.Tags, repo.saved[0].Tags)
	require.NotNil(t, repo.saved[0].PublishedAt)

	assert.True(t, seen.seen[a.GUID])
}

func TestExecute_SkipsWhenSeenInCache(t *testing.T) {
	a := sampleArticle()
	repo := &fakeRepo{existing: map[string]bool{}}
	seen := &fakeSeen{seen: map[string]bool{a.GUID: true}}
	wp := &fakePublisher{nextID: 1}

	uc := newUseCase(repo, seen, &fakeRewriter{}, wp, ImagesModeHotlink)

	_, err := uc.Execute(context.Background(), a)
	assert.ErrorIs(t, err, ErrAlreadyPublished)
	assert.Empty(t, wp.created)
	assert.Empty(t, repo.saved)
}

func TestExecute_SkipsWhenAlreadyRecorded(t *testing.T) {
	a := sampleArticle()
	repo := &fakeRepo{existing: map[string]bool{a.GUID: true}}
	seen := &fakeSeen{seen: map[string]bool{}}
	wp := &fakePublisher{nextID: 1}

	uc := newUseCase(repo, seen, &fakeRewriter{}, wp, ImagesModeHotlink)

	_, err := uc.Execute(context.Background(), a)
	assert.ErrorIs(t, err, ErrAlreadyPublished)
	assert.Empty(t, wp.created)

	// The database hit backfills the cache.
	assert.True(t, seen.seen[a.GUID])
}

func TestExecute_RewriteFailureAborts(t *testing.T) {
	repo := &fakeRepo{existing: map[string]bool{}}
	rw := &fakeRewriter{err: errors.New("all keys exhausted")}
	wp := &fakePublisher{nextID: 1}

	uc := newUseCase(repo, nil, rw, wp, ImagesModeHotlink)

	_, err := uc.Execute(context.Background(), sampleArticle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rewrite failed")
	assert.Empty(t, wp.created)
	assert.Empty(t, repo.saved)
}

func TestExecute_WordPressImageMode(t *testing.T) {
	repo := &fakeRepo{existing: map[string]bool{}}
	rw := &fakeRewriter{out: &service.Rewritten{Title: "t", Content: "<p>c</p>"}}
	wp := &fakePublisher{nextID: 7}

	a := sampleArticle()
	uc := newUseCase(repo, nil, rw, wp, ImagesModeWordPress)

	_, err := uc.Execute(context.Background(), a)
	require.NoError(t, err)

	require.Len(t, wp.uploaded, 1)
	assert.Equal(t, a.ImageURL, wp.uploaded[0])

	require.Len(t, wp.created, 1)
	assert.Equal(t, 900, wp.created[0].FeaturedMedia)
	assert.False(t, strings.Contains(wp.created[0].Content, "<figure>"))
}

func TestExecute_ImageFailureStillPublishes(t *testing.T) {
	repo := &fakeRepo{existing: map[string]bool{}}
	rw := &fakeRewriter{out: &service.Rewritten{Title: "t", Content: "<p>c</p>"}}
	wp := &fakePublisher{nextID: 8, uploadErr: errors.New("upload timed out")}

	uc := newUseCase(repo, nil, rw, wp, ImagesModeWordPress)

	postID, err := uc.Execute(context.Background(), sampleArticle())
	require.NoError(t, err)
	assert.Equal(t, 8, postID)

	require.Len(t, wp.created, 1)
	assert.Zero(t, wp.created[0].FeaturedMedia)
}

func TestExecute_SaveFailureDoesNotFailPublish(t *testing.T) {
	repo := &fakeRepo{existing: map[string]bool{}, saveErr: errors.New("db down")}
	rw := &fakeRewriter{out: &service.Rewritten{Title: "t", Content: "<p>c</p>"}}
	wp := &fakePublisher{nextID: 9}

	uc := newUseCase(repo, nil, rw, wp, ImagesModeHotlink)

	postID, err := uc.Execute(context.Background(), sampleArticle())
	require.NoError(t, err)
	assert.Equal(t, 9, postID)
}

func TestExecute_NoImageSkipsAttachment(t *testing.T) {
	repo := &fakeRepo{existing: map[string]bool{}}
	rw := &fakeRewriter{out: &service.Rewritten{Title: "t", Content: "<p>c</p>"}}
	wp := &fakePublisher{nextID: 10}

	a := sampleArticle()
	a.ImageURL = ""
	uc := newUseCase(repo, nil, rw, wp, ImagesModeWordPress)

	_, err := uc.Execute(context.Background(), a)
	require.NoError(t, err)
	assert.Empty(t, wp.uploaded)
}
