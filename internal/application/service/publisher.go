package service

import (
	"context"

	"github.com/vocmoney/pipeline/adapters/wordpress"
)

// Publisher is the slice of the WordPress client the publish use case needs.
type Publisher interface {
	CreatePost(ctx context.Context, p *wordpress.PostPayload) (int, error)
	UploadFromURL(ctx context.Context, imageURL, altText string) (*wordpress.Media, error)
	Domain() string
}
