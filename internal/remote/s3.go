package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"ohv-go/internal/config"
	"ohv-go/internal/ohv"
)

// ObjectGetter is the subset of the S3 API the remote needs.
// *s3.Client satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Remote reads upstream files from a bucket that mirrors the upstream tree
// under [<prefix>/]<owner>/<repo>/<version>/<remoteRoot>/<path>.
type S3Remote struct {
	client     ObjectGetter
	bucket     string
	prefix     string
	owner      string
	repo       string
	remoteRoot string
}

// NewS3Remote creates a remote over an existing client.
func NewS3Remote(client ObjectGetter, bucket, prefix, owner, repo, remoteRoot string) *S3Remote {
	return &S3Remote{
		client:     client,
		bucket:     bucket,
		prefix:     prefix,
		owner:      owner,
		repo:       repo,
		remoteRoot: remoteRoot,
	}
}

// NewS3Client builds an S3 client from the remote configuration.
// Static keys are used when configured, otherwise the default AWS credential chain.
// A custom endpoint switches to path-style addressing (MinIO, LocalStack).
func NewS3Client(ctx context.Context, rc config.RemoteConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if rc.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(rc.S3Region))
	}
	if rc.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(rc.S3AccessKeyID, rc.S3SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	var s3Opts []func(*s3.Options)
	if rc.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(rc.S3Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(cfg, s3Opts...), nil
}

// Key returns the object key for path at version.
func (r *S3Remote) Key(version, p string) string {
	return path.Join(r.prefix, r.owner, r.repo, version, r.remoteRoot, p)
}

// Fetch downloads the object. A missing object is reported with status 404.
func (r *S3Remote) Fetch(ctx context.Context, version, p string) ([]byte, error) {
	key := r.Key(version, p)
	location := "s3://" + r.bucket + "/" + key

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &ohv.RemoteFetchError{Location: location, StatusCode: s3StatusCode(err), Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &ohv.RemoteFetchError{Location: location, Err: fmt.Errorf("reading object: %w", err)}
	}
	return data, nil
}

func s3StatusCode(err error) int {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return http.StatusNotFound
	}
	var withStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &withStatus) {
		return withStatus.HTTPStatusCode()
	}
	return 0
}

// Compile-time check that S3Remote implements ohv.Remote interface
var _ ohv.Remote = (*S3Remote)(nil)
