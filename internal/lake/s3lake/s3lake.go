// Package s3lake implements the lake store on Amazon S3.
//
// Listing narrows by the pattern's literal prefix before Match filtering so a
// glob such as "log_data/*/*" never pages through unrelated keys. Uploads go
// through s3manager for multipart handling.
package s3lake

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"sparkify/internal/lake"
)

// deleteBatch is the S3 DeleteObjects request limit.
const deleteBatch = 1000

// Store is an S3 lake scoped to a bucket and an optional key prefix.
type Store struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
}

// New returns a Store for bucket, with all keys resolved under prefix.
// prefix may be empty.
func New(sess *session.Session, bucket, prefix string) *Store {
	return &Store{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

// List returns all object keys under the store prefix matching pattern,
// sorted.
func (s *Store) List(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	listPrefix := s.abs(lake.LiteralPrefix(pattern))

	err := s.client.ListObjectsV2PagesWithContext(ctx,
		&s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(listPrefix),
		},
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				key := s.rel(aws.StringValue(obj.Key))
				if key == "" {
					continue
				}
				if lake.Match(pattern, key) {
					keys = append(keys, key)
				}
			}
			return !lastPage
		})
	if err != nil {
		return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, listPrefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Open streams the object behind key.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.abs(key)),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.abs(key), err)
	}
	return out.Body, nil
}

// Put uploads r to the object behind key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.abs(key)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, s.abs(key), err)
	}
	return nil
}

// DeletePrefix removes every object under prefix, batching deletes at the
// DeleteObjects request limit.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	absPrefix := s.abs(prefix) + "/"

	var batch []*s3.ObjectIdentifier
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := s.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{Objects: batch, Quiet: aws.Bool(true)},
		})
		batch = batch[:0]
		return err
	}

	var flushErr error
	err := s.client.ListObjectsV2PagesWithContext(ctx,
		&s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(absPrefix),
		},
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				batch = append(batch, &s3.ObjectIdentifier{Key: obj.Key})
				if len(batch) >= deleteBatch {
					if flushErr = flush(); flushErr != nil {
						return false
					}
				}
			}
			return !lastPage
		})
	if err == nil {
		err = flushErr
	}
	if err != nil {
		return fmt.Errorf("delete prefix s3://%s/%s: %w", s.bucket, absPrefix, err)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("delete prefix s3://%s/%s: %w", s.bucket, absPrefix, err)
	}
	return nil
}

func (s *Store) abs(key string) string {
	key = strings.Trim(key, "/")
	if s.prefix == "" {
		return key
	}
	if key == "" {
		return s.prefix + "/"
	}
	return s.prefix + "/" + key
}

func (s *Store) rel(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
}
