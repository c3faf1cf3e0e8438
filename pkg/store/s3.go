package store

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config locates a bucket. Endpoint and PathStyle target S3-compatible
// services such as MinIO. Static credentials are optional; without them
// the default AWS credential chain applies.
type S3Config struct {
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	PathStyle       bool   `toml:"path_style"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// S3API is the subset of the S3 client used by [S3Store].
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps each document in <prefix><id>.json.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// OpenS3 builds an S3 client from cfg and the ambient AWS configuration.
func OpenS3(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, storeErr(stderrors.New("bucket is required"), "open s3")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, storeErr(err, "load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3Store(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3Store wraps an existing client.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) Backend() string { return BackendS3 }

func (s *S3Store) key(id string) string {
	return s.prefix + id + fileExt
}

func (s *S3Store) Get(ctx context.Context, id string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if isS3NotFound(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeErr(err, "get %s", id)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, storeErr(err, "read %s", id)
	}
	return data, nil
}

func (s *S3Store) Put(ctx context.Context, id string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(id)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return storeErr(err, "put %s", id)
	}
	return nil
}

// Delete checks existence first; S3 deletes of missing keys succeed.
func (s *S3Store) Delete(ctx context.Context, id string) error {
	key := aws.String(s.key(id))
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: key})
	if isS3NotFound(err) {
		return notFound(id)
	}
	if err != nil {
		return storeErr(err, "delete %s", id)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: key}); err != nil {
		return storeErr(err, "delete %s", id)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context) ([]Info, error) {
	var out []Info
	in := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	}
	for {
		page, err := s.client.ListObjectsV2(ctx, in)
		if err != nil {
			return nil, storeErr(err, "list documents")
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if strings.Contains(name, "/") || !strings.HasSuffix(name, fileExt) {
				continue
			}
			out = append(out, Info{
				ID:        strings.TrimSuffix(name, fileExt),
				Size:      int(aws.ToInt64(obj.Size)),
				UpdatedAt: aws.ToTime(obj.LastModified).UTC(),
			})
		}
		if !aws.ToBool(page.IsTruncated) {
			break
		}
		in.ContinuationToken = page.NextContinuationToken
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *S3Store) Close() error { return nil }

func isS3NotFound(err error) bool {
	if err == nil {
		return false
	}
	var noKey *types.NoSuchKey
	var missing *types.NotFound
	return stderrors.As(err, &noKey) || stderrors.As(err, &missing)
}
