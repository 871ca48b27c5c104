package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mikey/project-digest/internal/core"
	"go.uber.org/zap"
)

// S3API is the part of the S3 client used by S3Store
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store maps folders onto key prefixes of one bucket
type S3Store struct {
	client     S3API
	bucket     string
	outputPath string
	logger     *zap.Logger
}

// NewS3Store creates a store for bucket uploading under outputPath
func NewS3Store(client S3API, bucket, outputPath string, logger *zap.Logger) *S3Store {
	return &S3Store{
		client:     client,
		bucket:     bucket,
		outputPath: outputPath,
		logger:     logger,
	}
}

// List returns the objects directly below folder
func (s *S3Store) List(ctx context.Context, folder string) ([]core.FileHandle, error) {
	prefix := folderPrefix(folder)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var handles []core.FileHandle
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.wrapError("list "+folder, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			handles = append(handles, core.FileHandle{
				Name:         name,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return handles, nil
}

// Download fetches one object
func (s *S3Store) Download(ctx context.Context, name, folder string) ([]byte, error) {
	op := "download " + name
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(folderPrefix(folder) + name),
	})
	if err != nil {
		return nil, s.wrapError(op, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &core.TransportError{Op: op, Message: "failed to read object", Err: err}
	}
	return data, nil
}

// Upload puts name below the output prefix
func (s *S3Store) Upload(ctx context.Context, data []byte, name string) error {
	key := folderPrefix(s.outputPath) + name
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return s.wrapError("upload "+name, err)
	}

	s.logger.Debug("Uploaded object", zap.String("bucket", s.bucket), zap.String("key", key), zap.Int("size", len(data)))
	return nil
}

func (s *S3Store) wrapError(op string, err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return &core.TransportError{Op: op, Code: 404, Message: "not found", Err: err}
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return &core.TransportError{Op: op, Code: respErr.HTTPStatusCode(), Message: "request failed", Err: err}
	}
	return &core.TransportError{Op: op, Message: "request failed", Err: err}
}

func folderPrefix(folder string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ""
	}
	return folder + "/"
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}
