package wordpress

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedPosts serves deterministic pages: pageSizes[i] items on page i+1.
func pagedPosts(t *testing.T, requests *int, pageSizes []int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*requests++
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		require.NoError(t, err)
		require.LessOrEqual(t, page, len(pageSizes), "fetched a page past the end of data")

		size := pageSizes[page-1]
		posts := make([]PublishedPost, size)
		for i := range posts {
			posts[i] = PublishedPost{ID: (page-1)*defaultPageSize + i + 1}
		}
		writeJSON(t, w, posts)
	}
}

func TestFetchAllPages_AccumulatesUntilShortPage(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	emptyTaxonomy(mux)
	mux.HandleFunc(apiPrefix+"/posts", pagedPosts(t, &requests, []int{100, 100, 37}))

	c := newTestClient(t, mux, nil)

	posts, err := fetchAllPages[PublishedPost](context.Background(), c, "/posts", url.Values{}, 0)
	require.NoError(t, err)

	assert.Len(t, posts, 237)
	assert.Equal(t, 3, requests)
}

func TestFetchAllPages_MaxItemsStopsEarlyAndTrims(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	emptyTaxonomy(mux)
	mux.HandleFunc(apiPrefix+"/posts", pagedPosts(t, &requests, []int{100, 100, 37}))

	c := newTestClient(t, mux, nil)

	posts, err := fetchAllPages[PublishedPost](context.Background(), c, "/posts", url.Values{}, 50)
	require.NoError(t, err)

	assert.Len(t, posts, 50)
	assert.Equal(t, 1, requests)
}

func TestFetchAllPages_FailureKeepsAccumulatedPages(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	emptyTaxonomy(mux)
	mux.HandleFunc(apiPrefix+"/posts", func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Query().Get("page") != "1" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		posts := make([]PublishedPost, defaultPageSize)
		for i := range posts {
			posts[i] = PublishedPost{ID: i + 1}
		}
		writeJSON(t, w, posts)
	})

	c := newTestClient(t, mux, nil)

	posts, err := fetchAllPages[PublishedPost](context.Background(), c, "/posts", url.Values{}, 0)
	require.Error(t, err)

	// Prior pages survive the failure.
	assert.Len(t, posts, defaultPageSize)
	assert.Equal(t, 2, requests)
}
