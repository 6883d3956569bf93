package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

type S3Options struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint selects an S3-compatible service (MinIO, R2, ...). Path-style
	// addressing is used when it is set.
	Endpoint string
	BaseDir  string
}

// S3 stores objects under key prefixes; directories do not exist as such.
type S3 struct {
	client *s3.Client
	bucket string
	base   string
	logger *slog.Logger
}

var _ Store = (*S3)(nil)

func NewS3(ctx context.Context, opts S3Options, log *slog.Logger) (*S3, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	log.Info("initializing S3 object store",
		slog.String("bucket", opts.Bucket),
		slog.String("region", opts.Region),
		slog.String("endpoint", opts.Endpoint),
	)
	return &S3{
		client: client,
		bucket: opts.Bucket,
		base:   strings.Trim(opts.BaseDir, "/"),
		logger: log.With(slog.String("component", "s3")),
	}, nil
}

func (s *S3) Kind() string { return "s3" }

func (s *S3) key(userID int64, filename string) string {
	return ObjectPath(s.base, userID, filename)
}

// EnsureUserDirectory returns the user prefix; nothing has to be created.
func (s *S3) EnsureUserDirectory(_ context.Context, userID int64) (string, error) {
	return UserDir(s.base, userID), nil
}

func (s *S3) Upload(ctx context.Context, userID int64, filename string, r io.Reader, size int64) (string, error) {
	key := s.key(userID, filename)
	if err := validName(filename); err != nil {
		return "", &Error{Op: "upload", Path: key, Err: err}
	}

	// SigV4 over plain HTTP needs a seekable body to hash.
	body, ok := r.(io.ReadSeeker)
	if !ok {
		buf, err := io.ReadAll(r)
		if err != nil {
			return "", &Error{Op: "upload", Path: key, Err: err}
		}
		body = bytes.NewReader(buf)
		size = int64(len(buf))
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", &Error{Op: "upload", Path: key, Err: err}
	}
	s.logger.DebugContext(ctx, "uploaded object", slog.String("key", key), slog.Int64("size", size))
	return key, nil
}

func (s *S3) Download(ctx context.Context, userID int64, filename string) (io.ReadCloser, error) {
	key := s.key(userID, filename)
	if err := validName(filename); err != nil {
		return nil, &Error{Op: "download", Path: key, Err: err}
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "download", Path: key, Err: err}
	}
	return out.Body, nil
}

// Delete succeeds for absent keys; S3 DeleteObject is idempotent already.
func (s *S3) Delete(ctx context.Context, userID int64, filename string) error {
	key := s.key(userID, filename)
	if err := validName(filename); err != nil {
		return &Error{Op: "delete", Path: key, Err: err}
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isS3NotFound(err) {
		return &Error{Op: "delete", Path: key, Err: err}
	}
	return nil
}

func (s *S3) CheckConnection(ctx context.Context) bool {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		s.logger.WarnContext(ctx, "s3 connection check failed", slog.String("error", err.Error()))
		return false
	}
	return true
}

func isS3NotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
