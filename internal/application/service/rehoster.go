package service

import "context"

// ImageRehoster copies a remote image onto third-party storage and returns
// the new public URL. Used when images_mode is "cloudinary".
type ImageRehoster interface {
	Rehost(ctx context.Context, sourceURL, publicID string) (string, error)
}
