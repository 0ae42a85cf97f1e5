package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3AudioStore guarda audio en un bucket S3. Las claves se guardan sin el prefijo
// del bucket para que la base no dependa del backend.
type S3AudioStore struct {
	client    s3API
	bucket    string
	prefix    string
	publicURL string
}

// NewS3AudioStore usa la cadena de credenciales por defecto de AWS.
func NewS3AudioStore(ctx context.Context, bucket, prefix, publicURL string) (*S3AudioStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newS3AudioStore(s3.NewFromConfig(cfg), bucket, prefix, publicURL), nil
}

func newS3AudioStore(client s3API, bucket, prefix, publicURL string) *S3AudioStore {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3AudioStore{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Save sube el cuerpo tal cual; los archivos multipart son seekables, lo que
// permite al SDK firmar el payload.
func (s *S3AudioStore) Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := NewAudioKey(filename)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put audio object: %w", err)
	}
	return key, nil
}

func (s *S3AudioStore) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	return err
}

func (s *S3AudioStore) URL(key string) string {
	return s.publicURL + "/" + s.prefix + key
}
