// Package s3util uploads stitched output to S3 and builds the links handed
// back to the user.
package s3util

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// projectTag is the URL-encoded object tagging string for cost allocation.
const projectTag = "Project=stitchy"

// ErrInvalidURI is returned for destinations that are not s3://bucket[/prefix].
var ErrInvalidURI = errors.New("invalid S3 URI")

// Putter is the subset of *s3.Client used for uploads.
type Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Destination is an S3 bucket and key prefix.
type Destination struct {
	Bucket string
	Prefix string
}

// ParseURI parses s3://bucket or s3://bucket/some/prefix.
func ParseURI(raw string) (Destination, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Destination{}, fmt.Errorf("%w %q: %v", ErrInvalidURI, raw, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return Destination{}, fmt.Errorf("%w %q: want s3://bucket[/prefix]", ErrInvalidURI, raw)
	}
	return Destination{Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
}

// Key returns the object key for a stitched output. Keys are grouped by UTC
// day and named after the call that produced them.
func (d Destination) Key(callID, ext string, at time.Time) string {
	name := callID + "." + strings.TrimPrefix(ext, ".")
	return path.Join(d.Prefix, at.UTC().Format("2006/01/02"), name)
}

func (d Destination) String() string {
	if d.Prefix == "" {
		return "s3://" + d.Bucket
	}
	return "s3://" + d.Bucket + "/" + d.Prefix
}

// UploadFile uploads a local file to bucket/key with the project tag.
func UploadFile(ctx context.Context, client Putter, bucket, key, localPath, contentType string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	log.Debug().
		Str("bucket", bucket).
		Str("key", key).
		Str("path", localPath).
		Msg("Uploading output to S3")

	tagging := projectTag
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        f,
		ContentType: &contentType,
		Tagging:     &tagging,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3://%s/%s: %w", bucket, key, err)
	}

	log.Info().Str("bucket", bucket).Str("key", key).Msg("Output uploaded to S3")
	return nil
}

// GeneratePresignedURL creates a pre-signed GET URL for an object.
func GeneratePresignedURL(ctx context.Context, presignClient *s3.PresignClient, bucket, key string, expiry time.Duration) (string, error) {
	result, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket, Key: &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}
	return result.URL, nil
}
