package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/vvka-141/narscan/pkg/narscan"
)

// objectGetter is the part of the S3 API the fetcher needs.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures an S3Fetcher.
type S3Options struct {
	// Bucket is the bucket backing the cache
	Bucket string

	// Region is the bucket region; defaults to narscan.CacheRegion
	Region string

	// Endpoint optionally points at an S3-compatible mirror (path-style addressing)
	Endpoint string
}

// S3Fetcher reads cache objects from the bucket with requester-pays billing.
// Credentials come from the default AWS credential chain.
type S3Fetcher struct {
	bucket string
	client objectGetter
}

// NewS3Fetcher creates a fetcher using the default AWS configuration.
func NewS3Fetcher(ctx context.Context, opts S3Options) (*S3Fetcher, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required: %w", narscan.ErrInvalidConfig)
	}

	region := opts.Region
	if region == "" {
		region = narscan.CacheRegion
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Fetcher(opts.Bucket, client), nil
}

func newS3Fetcher(bucket string, client objectGetter) *S3Fetcher {
	return &S3Fetcher{bucket: bucket, client: client}
}

// Name implements narscan.Fetcher.
func (f *S3Fetcher) Name() string {
	return "s3"
}

// Download implements narscan.Fetcher.
// A successful read reports status 200. An absent object reports
// narscan.StatusNotFound with no error.
func (f *S3Fetcher) Download(ctx context.Context, key string) (int, []byte, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket:       aws.String(f.bucket),
		Key:          aws.String(key),
		RequestPayer: types.RequestPayerRequester,
	})
	if err != nil {
		if isAbsentObject(err) {
			return narscan.StatusNotFound, nil, nil
		}
		return 0, nil, fmt.Errorf("s3://%s/%s: %w", f.bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read s3://%s/%s: %w", f.bucket, key, err)
	}

	return http.StatusOK, body, nil
}

// isAbsentObject reports whether err means the object does not exist.
// Without ListBucket permission S3 answers 403 instead of 404 for missing keys.
func isAbsentObject(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound, http.StatusForbidden:
			return true
		}
	}

	return false
}

var _ narscan.Fetcher = (*S3Fetcher)(nil)
