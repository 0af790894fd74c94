// Package videofs acquires media for the preview tooling: it mirrors
// container files out of S3 into a local cache directory and lists playable
// local media, diverting single-frame image files away from the reader.
package videofs

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Bucket describes a remote media set.
type Bucket struct {
	Name   string // S3 bucket name
	Prefix string // key prefix ("folder") holding the media
}

// newS3Client builds an S3 client from environment credentials.
func newS3Client() (*s3.S3, error) {
	region := os.Getenv("AWS_DEFAULT_REGION")
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")

	if region == "" || accessKey == "" || secretKey == "" {
		return nil, errors.New("missing one or more required environment variables: AWS_DEFAULT_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}

// FetchAll downloads every object under the bucket prefix into dir and
// returns the local paths.
func FetchAll(b Bucket, dir string) ([]string, error) {
	log.Printf("FetchAll called | bucket=%s | prefix=%s", b.Name, b.Prefix)

	client, err := newS3Client()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}

	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.Name),
		Prefix: aws.String(b.Prefix),
	}

	var paths []string
	err = client.ListObjectsV2Pages(listInput, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			if obj.Key == nil || strings.HasSuffix(*obj.Key, "/") {
				continue
			}
			local, err := downloadObject(client, b.Name, *obj.Key, dir)
			if err != nil {
				log.Printf("FetchAll: failed to download %s: %v", *obj.Key, err)
				continue
			}
			paths = append(paths, local)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	log.Printf("FetchAll completed | downloaded=%d file(s)", len(paths))
	return paths, nil
}

// FetchSegment downloads up to count objects starting at startIndex
// (0-based) under the bucket prefix. The boolean in the second return value
// indicates whether the end of the set was reached.
func FetchSegment(b Bucket, dir string, startIndex, count int) ([]string, bool, error) {
	log.Printf("FetchSegment called | bucket=%s | startIndex=%d | count=%d", b.Name, startIndex, count)
	if count <= 0 {
		log.Printf("FetchSegment early-return: non-positive count (%d)", count)
		return nil, false, nil
	}

	client, err := newS3Client()
	if err != nil {
		return nil, false, err
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, false, err
	}

	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.Name),
		Prefix: aws.String(b.Prefix),
	}

	var keys []string
	err = client.ListObjectsV2Pages(listInput, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			if obj.Key == nil || strings.HasSuffix(*obj.Key, "/") {
				continue
			}
			keys = append(keys, *obj.Key)
		}
		return true
	})
	if err != nil {
		return nil, false, err
	}

	if startIndex >= len(keys) {
		return nil, true, nil
	}

	end := startIndex + count
	endOfSet := false
	if end >= len(keys) {
		end = len(keys)
		endOfSet = true
	}

	var paths []string
	for _, key := range keys[startIndex:end] {
		local, err := downloadObject(client, b.Name, key, dir)
		if err != nil {
			log.Printf("FetchSegment: failed to download %s: %v", key, err)
			continue
		}
		paths = append(paths, local)
	}

	log.Printf("FetchSegment completed | downloaded=%d | endOfSet=%v", len(paths), endOfSet)
	return paths, endOfSet, nil
}

// downloadObject copies one object to dir, keyed by its base name.
func downloadObject(client *s3.S3, bucket, key, dir string) (string, error) {
	out, err := client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", err
	}
	defer out.Body.Close()

	local := filepath.Join(dir, filepath.Base(key))
	f, err := os.Create(local)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		os.Remove(local)
		return "", err
	}
	return local, nil
}
