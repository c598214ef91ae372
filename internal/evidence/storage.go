// Package evidence uploads, versions, stores, and retrieves evidence
// blobs, §4.4. Grounded on the teacher's storage/s3aws.go (AWS SDK v2 S3
// client, shared HTTP client for connection pooling) and storage/s3_interface.go
// (a narrow interface over the S3 client for dependency injection/mocking);
// the teacher's MD5-based change-detection digest is replaced by a
// single-pass SHA-256 computed over the buffered payload before upload, per §4.4.
package evidence

import (
	"context"
	"net/http"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the narrow surface Evidence Vault needs from an S3-compatible
// client, grounded directly on storage/s3_interface.go's S3Client.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner issues time-bounded signed URLs for object reads, §4.4 "Read".
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// sharedHTTPClient is a pooled HTTP client grounded on the teacher's
// storage.sharedHTTPClient. No S3 client in this repository is built with it.
var sharedHTTPClient = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	},
}

// MaxConcurrentSignedURLs bounds parallel signed-URL generation when
// listing a page of evidence, §5 "explicitly expected: generating URLs
// for a page of evidence runs all requests concurrently".
const MaxConcurrentSignedURLs = 32
