package wordpress

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vocmoney/pipeline/pkg/apperror"
	"github.com/vocmoney/pipeline/pkg/retry"
)

const defaultUploadAttempts = 3

const fallbackFilename = "image.jpg"

// UploadFromURL downloads a remote image and re-uploads it as a new media
// object. Network-level failures (timeout, connection failure) are retried
// with linear backoff up to the attempt cap; remote-reported statuses fail
// immediately since repeating an identical rejected request changes nothing.
// Alt-text assignment is best effort and never unwinds a successful upload.
func (c *Client) UploadFromURL(ctx context.Context, imageURL, altText string) (*Media, error) {
	var media *Media
	attempt := 0

	err := retry.Do(ctx, c.uploadAttempts, c.backoff, retry.IsNetworkError, func() error {
		attempt++
		m, err := c.uploadOnce(ctx, imageURL)
		if err != nil {
			c.log.Warn("media upload attempt failed",
				zap.String("url", imageURL),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.uploadAttempts),
				zap.Error(err))
			return err
		}
		media = m
		return nil
	})
	if err != nil {
		c.log.Error("media upload exhausted", err,
			zap.String("url", imageURL), zap.Int("attempts", attempt))
		return nil, err
	}

	c.log.Info("media uploaded", zap.String("url", imageURL), zap.Int("media_id", media.ID))

	if altText != "" {
		if err := c.SetAltText(ctx, media.ID, altText); err != nil {
			c.log.Warn("failed to set media alt text",
				zap.Int("media_id", media.ID), zap.Error(err))
		} else {
			media.AltText = altText
		}
	}
	return media, nil
}

func (c *Client) uploadOnce(ctx context.Context, imageURL string) (*Media, error) {
	body, contentType, err := c.downloadImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filenameFromURL(imageURL)))
	headers.Set("Content-Type", contentType)

	var media Media
	if err := c.do(ctx, http.MethodPost, "/media", nil, bytes.NewReader(body), headers, uploadTimeout, &media); err != nil {
		return nil, err
	}
	return &media, nil
}

func (c *Client) downloadImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", apperror.NewInvalidInput("bad image URL", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", apperror.NewRemote("download "+imageURL, resp.StatusCode, "")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: read body: %w", imageURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return body, contentType, nil
}

// SetAltText annotates an existing attachment. Callers treat failure as
// non-fatal.
func (c *Client) SetAltText(ctx context.Context, mediaID int, altText string) error {
	if altText == "" {
		return nil
	}
	payload := map[string]string{"alt_text": altText}
	return c.doJSON(ctx, http.MethodPost, "/media/"+strconv.Itoa(mediaID), payload, lookupTimeout, nil)
}

// filenameFromURL derives a sanitized filename from the URL path, stripped
// of any query remnants, with a generic default when the path has none.
func filenameFromURL(imageURL string) string {
	name := ""
	if u, err := url.Parse(imageURL); err == nil {
		name = path.Base(u.Path)
	}
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == "." || name == "/" {
		return fallbackFilename
	}
	return name
}
