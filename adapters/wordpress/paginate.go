package wordpress

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const defaultPageSize = 100

// fetchAllPages walks a collection endpoint page by page, accumulating
// results until a short page signals the end of data or maxItems is reached
// (0 means unbounded; overflow is trimmed). A page failure stops pagination
// and returns what was accumulated so far alongside the error, so callers
// keep prior pages instead of discarding them.
func fetchAllPages[T any](ctx context.Context, c *Client, path string, params url.Values, maxItems int) ([]T, error) {
	var items []T
	for page := 1; ; page++ {
		if maxItems > 0 && len(items) >= maxItems {
			break
		}

		q := url.Values{}
		for k, vs := range params {
			q[k] = vs
		}
		q.Set("per_page", strconv.Itoa(defaultPageSize))
		q.Set("page", strconv.Itoa(page))

		var batch []T
		if err := c.do(ctx, http.MethodGet, path, q, nil, nil, bulkTimeout, &batch); err != nil {
			if maxItems > 0 && len(items) > maxItems {
				items = items[:maxItems]
			}
			return items, err
		}
		if len(batch) == 0 {
			break
		}

		items = append(items, batch...)
		if len(batch) < defaultPageSize {
			break
		}
	}

	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}
	return items, nil
}
