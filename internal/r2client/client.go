// Package r2client archives generated chart bundles in Cloudflare R2 through
// the S3 API and reads them back for operators.
package r2client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/google/uuid"
)

// ErrNotFound is returned when no bundle is stored under a key.
var ErrNotFound = errors.New("r2client: bundle not found")

const pdfContentType = "application/pdf"

// Config holds R2 client configuration.
type Config struct {
	Endpoint    string // e.g. https://<account-id>.r2.cloudflarestorage.com
	AccessKeyID string
	SecretKey   string
	BucketName  string
	// Prefix is prepended to every archive key, e.g. "bundles/".
	Prefix string
}

// Bundle is an archived PDF opened for reading. Body must be closed.
type Bundle struct {
	Key  string
	ETag string
	Size int64
	Body io.ReadCloser
}

// Client archives PDF bundles in a single bucket.
type Client struct {
	s3     *s3.Client
	bucket string
	prefix string
	now    func() time.Time
}

// New builds a client for the R2 bucket in cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretKey == "" || cfg.BucketName == "" {
		return nil, errors.New("r2client: endpoint, access key, secret key and bucket are required")
	}

	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(creds),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2client: load aws config: %w", err)
	}

	// R2 only serves path-style addressing.
	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &Client{s3: api, bucket: cfg.BucketName, prefix: cfg.Prefix, now: time.Now}, nil
}

// ArchiveKey returns a fresh object key for a bundle named name:
// <prefix>YYYY/MM/DD/<uuid>-<name>.pdf
func (c *Client) ArchiveKey(name string) string {
	return c.prefix + c.now().UTC().Format("2006/01/02/") + uuid.NewString() + "-" + name + ".pdf"
}

// ArchivePDF stores a bundle under a new key and returns the key.
func (c *Client) ArchivePDF(ctx context.Context, name string, pdf []byte) (string, error) {
	key := c.ArchiveKey(name)
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(pdf),
		ContentLength: aws.Int64(int64(len(pdf))),
		ContentType:   aws.String(pdfContentType),
	})
	if err != nil {
		return "", fmt.Errorf("r2client: archive %q: %w", key, err)
	}
	return key, nil
}

// Owns reports whether key lives under this client's prefix. Keys outside
// the prefix are never read.
func (c *Client) Owns(key string) bool {
	return key != "" && strings.HasPrefix(key, c.prefix) && strings.HasSuffix(key, ".pdf") &&
		!strings.Contains(key, "..")
}

// Stat returns the ETag of an archived bundle.
func (c *Client) Stat(ctx context.Context, key string) (string, error) {
	if !c.Owns(key) {
		return "", ErrNotFound
	}
	out, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("r2client: stat %q: %w", key, err)
	}
	return unquote(out.ETag), nil
}

// Open streams an archived bundle.
func (c *Client) Open(ctx context.Context, key string) (*Bundle, error) {
	if !c.Owns(key) {
		return nil, ErrNotFound
	}
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("r2client: open %q: %w", key, err)
	}
	return &Bundle{
		Key:  key,
		ETag: unquote(out.ETag),
		Size: aws.ToInt64(out.ContentLength),
		Body: out.Body,
	}, nil
}

func unquote(etag *string) string {
	return strings.Trim(aws.ToString(etag), `"`)
}

// isNotFound covers the typed S3 errors plus a bare 404, which HEAD returns
// without an error body.
func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
		return true
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
