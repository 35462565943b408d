package packager

import (
	"context"
	"io"
	"mime"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/transform"
)

// S3Options configures an ObjectStore.
type S3Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Prefix is prepended to every object key.
	Prefix string
}

// objectClient is the subset of *minio.Client the store uses.
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectStore uploads each artifact as <prefix>/<name>/<artifact> into an
// S3-compatible bucket, creating the bucket on first use.
type ObjectStore struct {
	client objectClient
	bucket string
	region string
	prefix string

	initOnce sync.Once
	initErr  error
}

var _ Packager = (*ObjectStore)(nil)

// NewObjectStore creates a minio-backed store.
func NewObjectStore(opts S3Options) (*ObjectStore, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.ConfigError("s3 endpoint is required").Build()
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.ConfigError("s3 bucket is required").Build()
	}
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = "us-east-1"
	}

	mopts := &minio.Options{Secure: opts.UseSSL, Region: region}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		mopts.Creds = credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, "")
	} else {
		mopts.Creds = credentials.NewEnvAWS()
	}
	client, err := minio.New(endpoint, mopts)
	if err != nil {
		return nil, errors.ConfigError("init s3 client").WithCause(err).WithContext("endpoint", endpoint).Build()
	}
	return newObjectStore(client, bucket, region, opts.Prefix), nil
}

func newObjectStore(client objectClient, bucket, region, prefix string) *ObjectStore {
	return &ObjectStore{
		client: client,
		bucket: bucket,
		region: region,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Package uploads every artifact and returns the s3:// URL of the theme folder.
func (s *ObjectStore) Package(ctx context.Context, name string, artifacts *transform.ArtifactSet) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if err := checkArtifacts(artifacts); err != nil {
		return "", err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", classifyS3Error("ensure bucket", err).WithContext("bucket", s.bucket).Build()
	}

	folder := path.Join(s.prefix, name)
	for file, content := range artifacts.All() {
		if err := canceled(ctx); err != nil {
			return "", err
		}
		key := path.Join(folder, file)
		_, err := s.client.PutObject(ctx, s.bucket, key, strings.NewReader(content), int64(len(content)),
			minio.PutObjectOptions{ContentType: contentType(file)})
		if err != nil {
			return "", classifyS3Error("upload artifact", err).
				WithContext("bucket", s.bucket).
				WithContext("key", key).
				Build()
		}
	}
	return "s3://" + s.bucket + "/" + folder + "/", nil
}

func classifyS3Error(msg string, err error) *errors.ErrorBuilder {
	switch minio.ToErrorResponse(err).Code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errors.AuthError(msg).WithCause(err)
	case "NoSuchBucket":
		return errors.NotFoundError(msg).WithCause(err)
	}
	return errors.PackagingError(msg).WithCause(err).Retryable()
}

func contentType(file string) string {
	switch path.Ext(file) {
	case ".php":
		return "application/x-httpd-php"
	case ".md":
		return "text/markdown; charset=utf-8"
	}
	if ct := mime.TypeByExtension(path.Ext(file)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
