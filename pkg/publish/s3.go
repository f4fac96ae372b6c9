package publish

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/core"
)

// UploadTimeout bounds a single upload
const UploadTimeout = 30 * time.Second

// Uploader publishes rendered images to an S3-compatible bucket
type Uploader struct {
	client  s3iface.S3API
	bucket  string
	cdnURL  string
	timeout time.Duration
	logger  core.Logger
}

// NewUploader creates an uploader from the S3 settings in cfg
func NewUploader(cfg config.Config, logger core.Logger) (*Uploader, error) {
	if !cfg.S3Enabled() {
		return nil, fmt.Errorf("S3 upload needs S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY")
	}

	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Region:           aws.String(cfg.S3Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.S3Endpoint != "" {
		s3Config.Endpoint = aws.String(cfg.S3Endpoint)
	}

	sess, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return NewUploaderWithClient(s3.New(sess), cfg.S3Bucket, cfg.CDNURL, logger), nil
}

// NewUploaderWithClient creates an uploader around an existing S3 client
func NewUploaderWithClient(client s3iface.S3API, bucket, cdnURL string, logger core.Logger) *Uploader {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Uploader{
		client:  client,
		bucket:  bucket,
		cdnURL:  strings.TrimSuffix(cdnURL, "/"),
		timeout: UploadTimeout,
		logger:  logger,
	}
}

// Upload stores data under key and returns the object's public URL
func (u *Uploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("upload key must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	size := int64(len(data))
	_, err := u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	u.logger.Printf("Uploaded %s to S3 (%d bytes)\n", key, size)
	return u.URL(key), nil
}

// URL returns where an uploaded key can be fetched
func (u *Uploader) URL(key string) string {
	if u.cdnURL != "" {
		return u.cdnURL + "/" + key
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key)
}
