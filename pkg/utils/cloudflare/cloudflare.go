package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	appconfig "estatelink_backend/pkg/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var ErrForeignURL = errors.New("url does not belong to this bucket")

// R2 stores objects in a Cloudflare R2 bucket through its S3 API.
type R2 struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewR2 builds a client for cfg. endpoint overrides the account endpoint when non-empty.
func NewR2(ctx context.Context, cfg appconfig.StorageConfig, endpoint string) (*R2, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

type UploadImageConfig struct {
	Body        io.Reader
	ContentType string
	Ext         string
	Owner       string
	Folder      string // e.g. the property slug, or "avatar"
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	UniqueID string `json:"unique_id"`
}

// ObjectKey builds users/<owner>/<folder>/<unique><ext> with URL-safe segments.
func ObjectKey(owner, folder, uniqueID, ext string) string {
	return path.Join("users", slug.Make(owner), slug.Make(folder), uniqueID+ext)
}

func (r *R2) UploadImage(ctx context.Context, cfg UploadImageConfig) (UploadResult, error) {
	uniqueID := fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.New().String())
	key := ObjectKey(cfg.Owner, cfg.Folder, uniqueID, cfg.Ext)

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        cfg.Body,
		ContentType: aws.String(cfg.ContentType),
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("could not upload file to R2: %w", err)
	}

	return UploadResult{
		URL:      r.publicURL + "/" + key,
		Key:      key,
		UniqueID: uniqueID,
	}, nil
}

func (r *R2) DeleteImage(ctx context.Context, fullURL string) error {
	key, err := r.KeyFromURL(fullURL)
	if err != nil {
		return err
	}
	_, err = r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("could not delete file from R2: %w", err)
	}
	return nil
}

func (r *R2) KeyFromURL(fullURL string) (string, error) {
	prefix := r.publicURL + "/"
	if !strings.HasPrefix(fullURL, prefix) {
		return "", ErrForeignURL
	}
	return strings.TrimPrefix(fullURL, prefix), nil
}
