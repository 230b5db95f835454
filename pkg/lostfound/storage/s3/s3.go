package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/tendant/lost-and-found/pkg/lostfound"
	"github.com/tendant/lost-and-found/pkg/lostfound/assetname"
)

// Config options for the S3 store
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	Prefix          string // Optional key prefix, e.g. "files/"
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)
	MaxSize         int64  // Upload limit in bytes (default: assetname.DefaultMaxSize)

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket if it doesn't exist
}

// Store is an S3-compatible implementation of the lostfound.AssetStore interface
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	config Config
	names  assetname.Generator
}

// New creates a new S3-compatible asset store
func New(ctx context.Context, config Config) (*Store, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	if config.MaxSize <= 0 {
		config.MaxSize = assetname.DefaultMaxSize
	}

	if config.Prefix != "" && !strings.HasSuffix(config.Prefix, "/") {
		config.Prefix += "/"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	store := &Store{
		client: s3.NewFromConfig(awsCfg, s3Options...),
		bucket: config.Bucket,
		prefix: config.Prefix,
		config: config,
		names:  assetname.NewTimestampGenerator(),
	}

	if config.CreateBucketIfNotExist {
		if err := store.createBucketIfNotExists(ctx); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return store, nil
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func (s *Store) createBucketIfNotExists(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	}
	if s.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.config.Region),
		}
	}

	_, err = s.client.CreateBucket(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) &&
			(apiErr.ErrorCode() == "BucketAlreadyExists" || apiErr.ErrorCode() == "BucketAlreadyOwnedByYou") {
			return nil
		}
		return err
	}
	return nil
}

func (s *Store) key(filename string) string {
	return s.prefix + filename
}

// Accept streams the upload to S3. If the payload crosses the size limit the
// upload is aborted and any object already written is removed.
func (s *Store) Accept(ctx context.Context, r io.Reader, originalName string) (string, error) {
	ext, err := assetname.Extension(originalName)
	if err != nil {
		return "", err
	}

	name := s.names.GenerateName(ext)
	guard := assetname.LimitReader(r, s.config.MaxSize)

	uploader := manager.NewUploader(s.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        guard,
		ContentType: aws.String(mime.TypeByExtension("." + ext)),
	})
	if guard.Exceeded() {
		if err == nil {
			s.removeObject(context.WithoutCancel(ctx), name)
		}
		return "", lostfound.ErrAssetTooLarge
	}
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return name, nil
}

func (s *Store) Open(ctx context.Context, filename string) (io.ReadCloser, *lostfound.AssetInfo, error) {
	if err := assetname.ValidateName(filename); err != nil {
		return nil, nil, lostfound.ErrAssetNotFound
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(filename)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, lostfound.ErrAssetNotFound
		}
		return nil, nil, fmt.Errorf("failed to download from S3: %w", err)
	}

	info := &lostfound.AssetInfo{
		Name:        filename,
		Size:        aws.ToInt64(result.ContentLength),
		ContentType: aws.ToString(result.ContentType),
		ModTime:     aws.ToTime(result.LastModified),
	}
	if info.ContentType == "" {
		info.ContentType = mime.TypeByExtension(path.Ext(filename))
	}
	return result.Body, info, nil
}

// Delete removes an object. S3 deletes are idempotent, so existence is
// checked first only to log the missing case.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if err := assetname.ValidateName(filename); err != nil {
		return err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(filename)),
	})
	if err != nil {
		if isNotFound(err) {
			slog.Warn("Asset already absent", "image", filename, "bucket", s.bucket)
			return nil
		}
		return fmt.Errorf("failed to check object: %w", err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(filename)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]lostfound.AssetInfo, error) {
	assets := []lostfound.AssetInfo{}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			// Only flat names belong to this store
			if assetname.ValidateName(name) != nil {
				continue
			}
			assets = append(assets, lostfound.AssetInfo{
				Name:        name,
				Size:        aws.ToInt64(obj.Size),
				ContentType: mime.TypeByExtension(path.Ext(name)),
				ModTime:     aws.ToTime(obj.LastModified),
			})
		}
	}

	return assets, nil
}

func (s *Store) removeObject(ctx context.Context, name string) {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		slog.Error("Failed to remove oversized upload", "image", name, "error", err)
	}
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) || errors.As(err, &noSuchBucket) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}
