package wordpress

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultStatus = "publish"

// CreatePost resolves the payload's taxonomy references into integer IDs
// (mutating the payload in place), applies the default publish status, and
// submits the post. A non-success response surfaces as a RemoteError with
// status and body; success returns the numeric post ID.
func (c *Client) CreatePost(ctx context.Context, p *PostPayload) (int, error) {
	var tagIDs []int
	if len(p.Tags) > 0 {
		tagIDs = c.ResolveTags(ctx, p.Tags)
		p.Tags = refsFromIDs(tagIDs)
	}

	var catIDs []int
	if len(p.Categories) > 0 {
		catIDs = c.resolveCategoryRefs(ctx, p.Categories)
		p.Categories = refsFromIDs(catIDs)
	}

	if p.Status == "" {
		p.Status = defaultStatus
	}

	req := postRequest{
		Title:         p.Title,
		Content:       p.Content,
		Excerpt:       p.Excerpt,
		Status:        p.Status,
		Categories:    catIDs,
		Tags:          tagIDs,
		FeaturedMedia: p.FeaturedMedia,
	}

	c.log.Info("creating post",
		zap.Int("title_len", len(p.Title)),
		zap.Int("content_len", len(p.Content)),
		zap.Ints("categories", catIDs),
		zap.Ints("tags", tagIDs))

	var created struct {
		ID int `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/posts", req, createTimeout, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// resolveCategoryRefs splits mixed references into direct IDs and names to
// resolve, then merges them into one deduplicated list, IDs first.
func (c *Client) resolveCategoryRefs(ctx context.Context, refs []TermRef) []int {
	ids := make([]int, 0, len(refs))
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.IsID() {
			ids = append(ids, ref.ID)
			continue
		}
		if numeric, ok := parseNumericRef(strings.TrimSpace(ref.Name)); ok {
			ids = append(ids, numeric.ID)
			continue
		}
		names = append(names, ref.Name)
	}

	ids = append(ids, c.ResolveCategories(ctx, names)...)

	merged := make([]int, 0, len(ids))
	seen := make(map[int]struct{})
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	return merged
}

// PublishedPosts lists published posts with field projection, paginating
// until end of data or max items (0 means all).
func (c *Client) PublishedPosts(ctx context.Context, fields []string, max int) ([]PublishedPost, error) {
	params := url.Values{}
	params.Set("status", "publish")
	if len(fields) > 0 {
		params.Set("_fields", strings.Join(fields, ","))
	}

	posts, err := fetchAllPages[PublishedPost](ctx, c, "/posts", params, max)
	if err != nil {
		c.log.Warn("published-post listing stopped early",
			zap.Int("fetched", len(posts)), zap.Error(err))
	}
	c.log.Info("fetched published posts", zap.Int("count", len(posts)))
	return posts, err
}

// TagNames maps tag IDs to their display names. Requests are chunked to the
// page-size limit of the include parameter; a failed chunk is skipped so the
// rest of the map still comes back.
func (c *Client) TagNames(ctx context.Context, tagIDs []int) map[int]string {
	names := make(map[int]string)
	if len(tagIDs) == 0 {
		return names
	}

	unique := make([]int, 0, len(tagIDs))
	seen := make(map[int]struct{})
	for _, id := range tagIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	for start := 0; start < len(unique); start += defaultPageSize {
		end := start + defaultPageSize
		if end > len(unique) {
			end = len(unique)
		}
		chunk := unique[start:end]

		include := make([]string, len(chunk))
		for i, id := range chunk {
			include[i] = strconv.Itoa(id)
		}

		params := url.Values{}
		params.Set("include", strings.Join(include, ","))
		params.Set("per_page", strconv.Itoa(defaultPageSize))
		params.Set("_fields", "id,name")

		var terms []Term
		if err := c.do(ctx, http.MethodGet, "/tags", params, nil, nil, bulkTimeout, &terms); err != nil {
			c.log.Error("failed to fetch tag names for chunk", err, zap.Int("chunk_size", len(chunk)))
			continue
		}
		for _, t := range terms {
			names[t.ID] = t.Name
		}
	}
	return names
}

// RelatedPosts searches the site for posts matching term, returning title and
// front-end permalink pairs for internal linking.
func (c *Client) RelatedPosts(ctx context.Context, term string, limit int) []RelatedPost {
	if term == "" {
		return nil
	}

	params := url.Values{}
	params.Set("search", term)
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("_embed", "self")

	var results []searchResult
	if err := c.do(ctx, http.MethodGet, "/search", params, nil, nil, lookupTimeout, &results); err != nil {
		c.log.Error("related-post search failed", err, zap.String("term", term))
		return nil
	}

	related := make([]RelatedPost, 0, len(results))
	for _, r := range results {
		link := ""
		// The search result URL is the API URL; the permalink lives in the
		// embedded post object.
		if len(r.Embedded.Self) > 0 {
			link = r.Embedded.Self[0].Link
		}
		related = append(related, RelatedPost{Title: r.Title, URL: link})
	}
	return related
}

// ProbeTermCreation verifies the configured credentials can manage taxonomy
// by creating and force-deleting a throwaway category.
func (c *Client) ProbeTermCreation(ctx context.Context) error {
	name := fmt.Sprintf("probe-categoria-%d", time.Now().Unix())

	id, err := c.createTerm(ctx, taxCategories, name)
	if err != nil {
		return fmt.Errorf("probe category creation: %w", err)
	}
	c.log.Info("probe category created", zap.String("name", name), zap.Int("id", id))

	params := url.Values{}
	params.Set("force", "true")
	if err := c.do(ctx, http.MethodDelete, "/categories/"+strconv.Itoa(id), params, nil, nil, lookupTimeout, nil); err != nil {
		c.log.Warn("probe category could not be deleted; it may remain on the site",
			zap.Int("id", id), zap.Error(err))
		return fmt.Errorf("probe category deletion: %w", err)
	}
	return nil
}
