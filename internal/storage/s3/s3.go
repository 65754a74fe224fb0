// Package s3 implements storage.Store on Amazon S3 or an S3 compatible service.
package s3

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/a3tai/mcp-pdf-signer/internal/errors"
	"github.com/a3tai/mcp-pdf-signer/internal/storage"
)

// DefaultPresignTTL is how long generated download URLs stay valid
const DefaultPresignTTL = 15 * time.Minute

// deleteBatch is the S3 DeleteObjects limit
const deleteBatch = 1000

// Options configures the S3 store
type Options struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, e.g. a LocalStack or MinIO URL
	AccessKeyID     string // optional static credentials
	SecretAccessKey string
	PresignTTL      time.Duration
}

// API is the subset of the S3 client the store uses
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store keeps blobs as objects in one bucket
type Store struct {
	client    API
	presigner *s3.PresignClient
	bucket    string
	ttl       time.Duration
}

// New loads the AWS SDK configuration and creates a store
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket cannot be empty")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, s3.NewPresignClient(client), opts.Bucket, opts.PresignTTL), nil
}

// NewWithClient creates a store over an existing client. A nil presigner makes
// URL return s3:// locations.
func NewWithClient(client API, presigner *s3.PresignClient, bucket string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	return &Store{
		client:    client,
		presigner: presigner,
		bucket:    bucket,
		ttl:       ttl,
	}
}

// Put implements storage.Store
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	name, err := storage.CleanKey(key)
	if err != nil {
		return errors.Validation("%v", err)
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return errors.Storage(err, "put object %s", name)
	}
	return nil
}

// Get implements storage.Store
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	name, err := storage.CleanKey(key)
	if err != nil {
		return nil, errors.Validation("%v", err)
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if stderrors.As(err, &noKey) {
			return nil, errors.NotFound("object %s does not exist", name)
		}
		return nil, errors.Storage(err, "get object %s", name)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Storage(err, "read object %s", name)
	}
	return data, nil
}

// Delete implements storage.Store. S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, key string) error {
	name, err := storage.CleanKey(key)
	if err != nil {
		return errors.Validation("%v", err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	}); err != nil {
		return errors.Storage(err, "delete object %s", name)
	}
	return nil
}

// DeletePrefix implements storage.Store
func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	name, err := storage.CleanKey(prefix)
	if err != nil {
		return errors.Validation("%v", err)
	}
	if strings.HasSuffix(prefix, "/") {
		name += "/"
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(name),
	})

	var batch []types.ObjectIdentifier
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: batch, Quiet: aws.Bool(true)},
		})
		batch = batch[:0]
		if err != nil {
			return errors.Storage(err, "delete objects under %s", name)
		}
		return nil
	}

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return errors.Storage(err, "list objects under %s", name)
		}
		for _, obj := range page.Contents {
			batch = append(batch, types.ObjectIdentifier{Key: obj.Key})
			if len(batch) == deleteBatch {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

// URL implements storage.Store with a presigned GET
func (s *Store) URL(ctx context.Context, key string) (string, error) {
	name, err := storage.CleanKey(key)
	if err != nil {
		return "", errors.Validation("%v", err)
	}
	if s.presigner == nil {
		return fmt.Sprintf("s3://%s/%s", s.bucket, name), nil
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", errors.Storage(err, "presign %s", name)
	}
	return req.URL, nil
}

var _ storage.Store = (*Store)(nil)
