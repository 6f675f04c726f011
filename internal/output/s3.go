package output

import (
	"bytes"
	"context"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/densky-dev/densky/internal/config"
	"github.com/densky-dev/densky/internal/errors"
)

// S3API is the part of the S3 client the sink uses.
type S3API interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Sink uploads artifacts to a bucket.
type S3Sink struct {
	client   S3API
	bucket   string
	prefix   string
	metadata map[string]string
}

// NewS3Sink creates a sink writing to bucket below prefix.
func NewS3Sink(client S3API, bucket, prefix string) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: bucket,
		prefix: strings.TrimPrefix(prefix, "/"),
	}
}

// WithMetadata sets user metadata stored on every uploaded object.
func (s *S3Sink) WithMetadata(md map[string]string) *S3Sink {
	s.metadata = md
	return s
}

func (s *S3Sink) key(key string) string {
	return s.prefix + cleanKey(key)
}

// Write uploads content as one object.
func (s *S3Sink) Write(ctx context.Context, key string, content []byte) error {
	objectKey := s.key(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(objectKey),
		Body:         bytes.NewReader(content),
		ContentType:  aws.String(contentType(objectKey)),
		CacheControl: aws.String("no-cache"),
		Metadata:     s.metadata,
	})
	if err != nil {
		return errors.New("E141").WithLocation(s.Location(key), 0, 0).Wrap(err)
	}
	return nil
}

// Clean deletes every object below prefix.
func (s *S3Sink) Clean(ctx context.Context, prefix string) error {
	listPrefix := s.prefix
	if p := cleanKey(prefix); p != "" {
		listPrefix += p + "/"
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(listPrefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return errors.New("E141").WithLocation("s3://"+s.bucket+"/"+listPrefix, 0, 0).Wrap(err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}

	for _, key := range keys {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return errors.New("E141").WithLocation("s3://"+s.bucket+"/"+key, 0, 0).Wrap(err)
		}
	}
	return nil
}

// Location returns the s3:// URL of key.
func (s *S3Sink) Location(key string) string {
	return "s3://" + s.bucket + "/" + s.key(key)
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".ts", ".tsx":
		return "application/typescript"
	case ".js", ".mjs":
		return "text/javascript"
	default:
		return "text/plain; charset=utf-8"
	}
}

// NewS3Client builds a client for cfg. Credentials come from the
// standard AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN
// variables; the region falls back to AWS_REGION, then us-east-1.
func NewS3Client(cfg config.S3Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: cfg.UsePathStyle,
		Credentials:  aws.NewCredentialsCache(envCredentials{}),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

type envCredentials struct{}

func (envCredentials) Retrieve(context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "densky.env",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, errors.Newf(errors.CategoryOutput, "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return creds, nil
}

// New picks the sink cfg asks for: S3 when output.s3 is set, the local
// output directory otherwise.
func New(cfg *config.Config) Sink {
	if s3cfg := cfg.Output.S3; s3cfg != nil {
		return NewS3Sink(NewS3Client(*s3cfg), s3cfg.Bucket, s3cfg.Prefix)
	}
	return NewDirSink(cfg.OutputPath())
}
