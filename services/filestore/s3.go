package filestore

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core"
)

// S3API is the part of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

func NewS3Client(ctx context.Context, conf *core.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(conf.S3.Region)}
	if conf.S3.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.S3.AccessKeyID, conf.S3.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.S3.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Storage keeps files in a bucket. URLs are built from s3.publicUrl when set.
type S3Storage struct {
	client    S3API
	bucket    string
	publicURL string
}

var _ core.FileStorage = (*S3Storage)(nil)

func NewS3Storage(client S3API, conf *core.Config) *S3Storage {
	public := strings.TrimRight(conf.S3.PublicURL, "/")
	if public == "" {
		public = "https://" + conf.S3.Bucket + ".s3." + conf.S3.Region + ".amazonaws.com"
	}
	return &S3Storage{client: client, bucket: conf.S3.Bucket, publicURL: public}
}

func (s *S3Storage) Save(ctx context.Context, folder string, up core.Upload) (core.FileRef, error) {
	// the SDK signs the payload, so the body must be seekable
	content, err := io.ReadAll(up.Content)
	if err != nil {
		return core.FileRef{}, errors.Wrap(err, "reading upload")
	}

	key := objectKey(folder, up.Filename)
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	}
	if up.ContentType != "" {
		in.ContentType = aws.String(up.ContentType)
	}
	if _, err = s.client.PutObject(ctx, in); err != nil {
		return core.FileRef{}, errors.Wrap(err, "putting object")
	}

	return core.FileRef{
		Filename:     key,
		OriginalName: up.Filename,
		URL:          s.publicURL + "/" + (&url.URL{Path: key}).EscapedPath(),
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, ref core.FileRef) error {
	if !validKey(ref.Filename) {
		return ErrInvalidKey
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref.Filename),
	})
	return errors.Wrap(err, "deleting object")
}
