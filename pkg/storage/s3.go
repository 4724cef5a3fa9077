package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxPreuveSize is the maximum allowed size for proof-of-payment uploads (10MB).
	MaxPreuveSize = 10 * 1024 * 1024
	// FolderPreuves is the S3 prefix for proof-of-payment objects.
	FolderPreuves = "preuves"
)

// Allowed proof-of-payment MIME types and extensions (PDF, JPG, PNG).
var (
	AllowedPreuveTypes = map[string]string{
		"application/pdf": ".pdf",
		"image/jpeg":      ".jpg",
		"image/jpg":       ".jpg",
		"image/png":       ".png",
	}
	AllowedPreuveExtensions = map[string]string{
		".pdf":  "application/pdf",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
	}
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PreuvesBucket   string
}

// S3 stores proof-of-payment files with public-URL retrieval.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the environment
// (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
	} else if logger != nil {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3{
		client:   client,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ValidateProofType returns true if the content type and/or extension are
// allowed for proof-of-payment files.
func ValidateProofType(contentType, filename string) bool {
	ext := strings.ToLower(path.Ext(filename))
	if contentType != "" {
		if _, ok := AllowedPreuveTypes[strings.ToLower(contentType)]; ok {
			return true
		}
	}
	if ext != "" {
		if _, ok := AllowedPreuveExtensions[ext]; ok {
			return true
		}
	}
	return false
}

// ContentTypeForFilename returns the MIME type for a proof filename extension.
func ContentTypeForFilename(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ct, ok := AllowedPreuveExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ProofKey returns a fresh S3 object key for a proof file:
// preuves/{uuid}{original extension}.
func ProofKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(FolderPreuves, uuid.New().String()+ext)
}

// PublicObjectURL returns the public URL for an object in the preuves bucket.
func (s *S3) PublicObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.PreuvesBucket, s.cfg.Region, key)
}

// UploadProof streams a proof-of-payment file to the preuves bucket under a
// generated unique key and returns its public URL. The bucket is intended to
// be publicly readable so the URL can be stored on the inscription directly.
func (s *S3) UploadProof(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	key := ProofKey(filename)
	var sizePtr *int64
	if size > 0 {
		sizePtr = &size
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.PreuvesBucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: sizePtr,
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload proof: %w", err)
	}
	s.logger.Info("proof uploaded", zap.String("key", key))
	return s.PublicObjectURL(key), nil
}

// DeleteProof removes a proof object from the preuves bucket.
func (s *S3) DeleteProof(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.PreuvesBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete proof: %w", err)
	}
	return nil
}
