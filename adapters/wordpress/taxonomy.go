package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vocmoney/pipeline/pkg/apperror"
	"github.com/vocmoney/pipeline/pkg/slugify"
)

type taxonomy string

const (
	taxCategories taxonomy = "categories"
	taxTags       taxonomy = "tags"
)

// errTermExists signals a remote uniqueness conflict: the term was created
// between the initial cache load and this call, by this or another writer.
var errTermExists = errors.New("term already exists")

// termCache maps normalized term keys (lowercased name, and slug) to remote
// IDs, separately per taxonomy. It is the single source of truth for "does
// this term already exist" within one process lifetime; a name that maps to
// an entry is never re-created.
type termCache struct {
	buckets map[taxonomy]map[string]int
}

func newTermCache() *termCache {
	return &termCache{
		buckets: map[taxonomy]map[string]int{
			taxCategories: {},
			taxTags:       {},
		},
	}
}

func (tc *termCache) get(tax taxonomy, name string) (int, bool) {
	bucket := tc.buckets[tax]
	if id, ok := bucket[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id, true
	}
	id, ok := bucket[slugify.Make(name)]
	return id, ok
}

func (tc *termCache) put(tax taxonomy, name string, id int) {
	bucket := tc.buckets[tax]
	bucket[strings.ToLower(strings.TrimSpace(name))] = id
	bucket[slugify.Make(name)] = id
}

func (tc *termCache) putSlug(tax taxonomy, slug string, id int) {
	if slug != "" {
		tc.buckets[tax][slug] = id
	}
}

func (tc *termCache) size(tax taxonomy) int {
	return len(tc.buckets[tax])
}

// ResolveCategories converts free-text category names into remote term IDs,
// creating missing terms. Names that fail to resolve are skipped; the post
// proceeds with whatever subset resolved. Output order is deterministic
// (first seen wins).
func (c *Client) ResolveCategories(ctx context.Context, names []string) []int {
	cleaned := dedupeNames(names)

	ids := make([]int, 0, len(cleaned))
	seen := make(map[int]struct{})
	for _, name := range cleaned {
		id, ok := c.resolveTerm(ctx, taxCategories, name)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	c.log.Info("resolved categories", zap.Strings("names", cleaned), zap.Ints("ids", ids))
	return ids
}

// ResolveTags converts mixed tag references (numeric IDs, names, or
// comma-separated name lists) into remote term IDs. The normalized list is
// capped to guard against runaway tag lists producing excessive API calls.
func (c *Client) ResolveTags(ctx context.Context, refs []TermRef) []int {
	normalized := normalizeTagRefs(refs, c.maxTags)

	ids := make([]int, 0, len(normalized))
	seen := make(map[int]struct{})
	for _, ref := range normalized {
		var id int
		if ref.IsID() {
			id = ref.ID
		} else {
			// Single-rune tags are noise from the rewrite step.
			if len([]rune(ref.Name)) < 2 {
				continue
			}
			resolved, ok := c.resolveTerm(ctx, taxTags, ref.Name)
			if !ok {
				continue
			}
			id = resolved
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	c.log.Info("resolved tags", zap.Int("input", len(refs)), zap.Ints("ids", ids))
	return ids
}

// resolveTerm implements the per-name algorithm: cache by lowered name then
// slug; on miss attempt remote creation; on a uniqueness conflict re-query by
// exact name/slug to recover the ID. Recovered and created IDs are written
// back so the next name in the batch hits the cache.
func (c *Client) resolveTerm(ctx context.Context, tax taxonomy, name string) (int, bool) {
	if id, ok := c.cache.get(tax, name); ok {
		return id, true
	}

	id, err := c.createTerm(ctx, tax, name)
	if errors.Is(err, errTermExists) {
		c.log.Warn("term already exists, re-fetching ID",
			zap.String("taxonomy", string(tax)), zap.String("name", name))
		recovered, ok := c.findTerm(ctx, tax, name)
		if !ok {
			return 0, false
		}
		c.cache.put(tax, name, recovered)
		return recovered, true
	}
	if err != nil {
		c.log.Error("failed to create term", err,
			zap.String("taxonomy", string(tax)), zap.String("name", name))
		return 0, false
	}

	c.log.Info("created term", zap.String("taxonomy", string(tax)),
		zap.String("name", name), zap.Int("id", id))
	c.cache.put(tax, name, id)
	return id, true
}

func (c *Client) createTerm(ctx context.Context, tax taxonomy, name string) (int, error) {
	payload := map[string]string{
		"name": name,
		"slug": slugify.Make(name),
	}

	var created Term
	err := c.doJSON(ctx, http.MethodPost, "/"+string(tax), payload, lookupTimeout, &created)
	if err != nil {
		var re *apperror.RemoteError
		if errors.As(err, &re) && re.StatusCode == http.StatusBadRequest {
			var apiErr struct {
				Code string `json:"code"`
			}
			if json.Unmarshal([]byte(re.Body), &apiErr) == nil && apiErr.Code == "term_exists" {
				return 0, errTermExists
			}
		}
		return 0, err
	}
	return created.ID, nil
}

// findTerm re-queries the search endpoint for an exact match. Search results
// can be broad near-matches, so only an exact case-insensitive name match or
// a slug match is accepted; a wrong ID must never be selected.
func (c *Client) findTerm(ctx context.Context, tax taxonomy, name string) (int, bool) {
	params := url.Values{}
	params.Set("search", name)
	params.Set("per_page", strconv.Itoa(defaultPageSize))
	params.Set("_fields", "id,name,slug")

	var items []Term
	if err := c.do(ctx, http.MethodGet, "/"+string(tax), params, nil, nil, lookupTimeout, &items); err != nil {
		c.log.Error("term search failed", err,
			zap.String("taxonomy", string(tax)), zap.String("name", name))
		return 0, false
	}

	want := strings.ToLower(strings.TrimSpace(name))
	for _, item := range items {
		if strings.ToLower(strings.TrimSpace(item.Name)) == want {
			return item.ID, true
		}
	}
	slug := slugify.Make(name)
	for _, item := range items {
		if item.Slug == slug {
			return item.ID, true
		}
	}
	return 0, false
}

// dedupeNames trims, drops empties, and deduplicates case-insensitively,
// preserving first-seen order.
func dedupeNames(names []string) []string {
	cleaned := make([]string, 0, len(names))
	seen := make(map[string]struct{})
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, name)
	}
	return cleaned
}

// normalizeTagRefs splits comma-separated names, recognizes numeric strings
// as IDs, deduplicates preserving first-seen order, and truncates to max.
func normalizeTagRefs(refs []TermRef, max int) []TermRef {
	out := make([]TermRef, 0, len(refs))
	seen := make(map[string]struct{})

	add := func(ref TermRef) bool {
		var key string
		if ref.IsID() {
			key = "#" + strconv.Itoa(ref.ID)
		} else {
			key = strings.ToLower(ref.Name)
		}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		out = append(out, ref)
		return len(out) >= max
	}

	for _, ref := range refs {
		if len(out) >= max {
			break
		}
		if ref.IsID() {
			if add(ref) {
				break
			}
			continue
		}
		full := false
		for _, part := range strings.Split(ref.Name, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if numeric, ok := parseNumericRef(part); ok {
				full = add(numeric)
			} else {
				full = add(ByName(part))
			}
			if full {
				break
			}
		}
		if full {
			break
		}
	}
	return out
}
