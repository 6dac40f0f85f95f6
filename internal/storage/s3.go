package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const signedUploadTTL = 10 * time.Minute

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

// S3Storage stores media in an S3-compatible bucket and can presign direct
// client uploads.
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

func NewS3Storage(cfg S3Config) *S3Storage {
	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		publicURL: publicURL,
	}
}

func (s *S3Storage) objectKey(folder, filename string) string {
	extension := strings.ToLower(filepath.Ext(filename))
	return path.Join("uploads", folder, uuid.NewString()+extension)
}

func (s *S3Storage) Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (Object, error) {
	key := s.objectKey(folder, filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Object{}, err
	}

	return Object{
		URL:       s.publicURL + "/" + key,
		StorageID: key,
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, storageID string) error {
	if strings.TrimSpace(storageID) == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageID),
	})
	return err
}

func (s *S3Storage) SignUpload(ctx context.Context, folder, filename, contentType string) (SignedUpload, error) {
	key := s.objectKey(folder, filename)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(signedUploadTTL))
	if err != nil {
		return SignedUpload{}, err
	}

	return SignedUpload{
		UploadURL: req.URL,
		Key:       key,
		PublicURL: s.publicURL + "/" + key,
		ExpiresAt: time.Now().Add(signedUploadTTL),
	}, nil
}
