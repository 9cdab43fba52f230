// Package blob stores uploaded dish photos on the local filesystem or S3.
package blob

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
)

// NewImageStore builds the image store selected by cfg.Backend.
func NewImageStore(ctx context.Context, logger *common.Logger, cfg common.ImageConfig) (interfaces.ImageStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		return NewFileStore(logger, cfg.Path)
	case "s3":
		return NewS3Store(ctx, logger, S3Config{
			Bucket:   cfg.Bucket,
			Prefix:   cfg.Prefix,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown image backend %q (want file or s3)", cfg.Backend)
	}
}

// sanitizeKey turns a key into a relative slash path that cannot escape
// the store root.
func sanitizeKey(key string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return clean, nil
}
