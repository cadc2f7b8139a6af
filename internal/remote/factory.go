package remote

import (
	"context"
	"fmt"
	"io"

	"ohv-go/internal/config"
	"ohv-go/internal/ohv"
)

// NewRemoteFromConfig creates a Remote implementation based on the remote config type.
// progress receives clone output for the git remote and may be nil.
func NewRemoteFromConfig(ctx context.Context, cfg *config.Config, progress io.Writer) (ohv.Remote, error) {
	switch cfg.Remote.Type {
	case "", "http":
		return NewHTTPRemote(nil, cfg.BaseURL, cfg.Owner, cfg.Repo, cfg.RemoteRoot), nil
	case "s3":
		if cfg.Remote.S3Bucket == "" {
			return nil, fmt.Errorf("s3_bucket required for s3 remote")
		}
		client, err := NewS3Client(ctx, cfg.Remote)
		if err != nil {
			return nil, err
		}
		return NewS3Remote(client, cfg.Remote.S3Bucket, cfg.Remote.S3Prefix, cfg.Owner, cfg.Repo, cfg.RemoteRoot), nil
	case "git":
		r, err := OpenGitRemote(ctx, cfg.Remote.GitPath, cfg.GitURL(), cfg.RemoteRoot, progress)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Remote.Type)
	}
}
