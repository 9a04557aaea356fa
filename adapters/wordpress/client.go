package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vocmoney/pipeline/pkg/apperror"
	"github.com/vocmoney/pipeline/pkg/logger"
	"github.com/vocmoney/pipeline/pkg/retry"
)

const restPath = "/wp-json/wp/v2"

const userAgent = "VocMoney-Pipeline/1.0"

// Per-operation timeouts: short for lookups, longer for uploads and post
// creation so a hung connection cannot stall the process indefinitely.
const (
	lookupTimeout   = 20 * time.Second
	bulkTimeout     = 30 * time.Second
	downloadTimeout = 25 * time.Second
	uploadTimeout   = 40 * time.Second
	createTimeout   = 60 * time.Second
)

const defaultMaxTags = 10

type Config struct {
	URL      string
	User     string
	Password string
}

// Client talks to a WordPress site through its REST API. It owns the term
// cache for the lifetime of the process; no taxonomy state survives a
// restart. All calls are synchronous and single-threaded.
type Client struct {
	apiURL   string
	user     string
	password string
	http     *http.Client
	// Image downloads go out unauthenticated to arbitrary hosts.
	download *http.Client
	log      logger.Logger
	cache    *termCache

	maxTags        int
	uploadAttempts int
	backoff        retry.BackoffFunc
}

// New builds a client and seeds the term cache: the static category seed map
// (lowercased keys) merged with, and overridden by, a paginated bulk fetch of
// both taxonomies. A missing base URL is a setup problem and fails here.
func New(ctx context.Context, cfg Config, seed map[string]int, log logger.Logger) (*Client, error) {
	base := strings.TrimRight(cfg.URL, "/")
	if base == "" {
		return nil, apperror.NewConfig("wordpress.url is not set")
	}
	if !strings.Contains(base, restPath) {
		base += restPath
	}

	c := &Client{
		apiURL:         base,
		user:           cfg.User,
		password:       cfg.Password,
		http:           &http.Client{},
		download:       &http.Client{},
		log:            log,
		cache:          newTermCache(),
		maxTags:        defaultMaxTags,
		uploadAttempts: defaultUploadAttempts,
		backoff:        retry.Linear(2 * time.Second),
	}

	for name, id := range seed {
		c.cache.put(taxCategories, name, id)
	}

	log.Info("loading WordPress taxonomy into cache")
	c.warmCache(ctx)
	return c, nil
}

// Domain returns the host of the configured site URL, used for source
// attribution lines.
func (c *Client) Domain() string {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// warmCache bulk-loads categories and tags. A fetch failure leaves whatever
// was accumulated so far in the cache; resolution falls back to the
// create-or-recover path for anything missing.
func (c *Client) warmCache(ctx context.Context) {
	for _, tax := range []taxonomy{taxCategories, taxTags} {
		params := url.Values{}
		params.Set("orderby", "count")
		params.Set("order", "desc")
		params.Set("_fields", "id,name,slug")

		terms, err := fetchAllPages[Term](ctx, c, "/"+string(tax), params, 0)
		if err != nil {
			c.log.Warn("partial taxonomy bulk fetch", zap.String("taxonomy", string(tax)), zap.Error(err))
		}
		for _, t := range terms {
			c.cache.put(tax, t.Name, t.ID)
			c.cache.putSlug(tax, t.Slug, t.ID)
		}
		c.log.Info("taxonomy cached", zap.String("taxonomy", string(tax)), zap.Int("terms", len(terms)))
	}
}

// do executes one REST call with its own timeout. A non-2xx response becomes
// a RemoteError carrying status and body; transport failures are returned
// unwrapped so the retry predicate can classify them.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, headers http.Header, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.apiURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return apperror.NewInternal("failed to build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.user != "" && c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperror.NewRemote(method+" "+path, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return apperror.NewInternal(fmt.Sprintf("failed to decode %s %s response", method, path), err)
		}
	}
	return nil
}

// doJSON marshals payload and executes a JSON-bodied call.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any, timeout time.Duration, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return apperror.NewInternal("failed to encode request payload", err)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	return c.do(ctx, method, path, nil, bytes.NewReader(raw), headers, timeout, out)
}
