package media_storage

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/vocmoney/pipeline/internal/application/service"
	"github.com/vocmoney/pipeline/internal/config"
	"github.com/vocmoney/pipeline/pkg/logger"
)

type cloudinaryAdapter struct {
	cld *cloudinary.Cloudinary
	log logger.Logger
}

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (service.ImageRehoster, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name is not configured")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}

	log.Info("connected to Cloudinary")
	return &cloudinaryAdapter{cld: cld, log: log}, nil
}

// Rehost ingests the remote URL directly; Cloudinary fetches the bytes
// itself, so no local download round-trip is needed.
func (a *cloudinaryAdapter) Rehost(ctx context.Context, sourceURL, publicID string) (string, error) {
	result, err := a.cld.Upload.Upload(ctx, sourceURL, uploader.UploadParams{
		PublicID: publicID,
		Folder:   "pipeline/articles",
	})
	if err != nil {
		return "", fmt.Errorf("failed to rehost image on cloudinary: %w", err)
	}
	return result.SecureURL, nil
}
