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
	// MaxBannerSize is the largest banner image accepted (5MB).
	MaxBannerSize = 5 * 1024 * 1024
	// FolderBanners is the S3 prefix for event banner objects.
	FolderBanners = "banners"
)

// AllowedBannerTypes maps accepted image MIME types to their file extension.
var AllowedBannerTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var bannerExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// S3Config holds S3 client configuration.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BannersBucket   string
	PublicRead      bool
}

// S3 stores event banners.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config, the environment, or the default chain.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
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
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("banners_bucket", cfg.BannersBucket))
	} else {
		logger.Warn("S3 client using default credential chain")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3{
		client:   client,
		uploader: manager.NewUploader(client),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ValidateBannerType reports whether the content type or filename extension is an accepted image.
func ValidateBannerType(contentType, filename string) bool {
	if _, ok := AllowedBannerTypes[strings.ToLower(contentType)]; ok {
		return true
	}
	_, ok := bannerExtensions[strings.ToLower(path.Ext(filename))]
	return ok
}

// BannerContentType returns the MIME type to store a banner with.
func BannerContentType(contentType, filename string) string {
	ct := strings.ToLower(contentType)
	if _, ok := AllowedBannerTypes[ct]; ok {
		return ct
	}
	if ct, ok := bannerExtensions[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// BannerKey returns a fresh object key: banners/{uuid}{ext}.
func BannerKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := bannerExtensions[ext]; !ok {
		ext = ""
	}
	return path.Join(FolderBanners, uuid.New().String()+ext)
}

// PublicObjectURL returns the direct URL for a banner key.
func (s *S3) PublicObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.BannersBucket, s.cfg.Region, key)
}

// UploadBanner streams an image to the banners bucket under a new key and returns key and URL.
func (s *S3) UploadBanner(ctx context.Context, filename, contentType string, body io.Reader, size int64) (key, url string, err error) {
	key = BannerKey(filename)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BannersBucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(BannerContentType(contentType, filename)),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if s.cfg.PublicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", "", fmt.Errorf("upload banner: %w", err)
	}
	s.logger.Debug("banner uploaded", zap.String("key", key))
	return key, s.PublicObjectURL(key), nil
}

// DeleteBanner removes a banner object. Deleting a missing key succeeds.
func (s *S3) DeleteBanner(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.BannersBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}
	return nil
}

// OpenBanner returns the banner body and content type. Caller must close the body.
func (s *S3) OpenBanner(ctx context.Context, key string) (io.ReadCloser, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.BannersBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get banner: %w", err)
	}
	return out.Body, aws.ToString(out.ContentType), nil
}
