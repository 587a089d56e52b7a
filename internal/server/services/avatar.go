package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	sc "github.com/webstarter/authkit/internal/server/config"
)

// Seams for the AWS SDK calls, replaceable in tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// AvatarService hands out presigned S3 URLs for avatar upload and download.
// The server never proxies image bytes.
type AvatarService struct {
	config *sc.Config
}

func NewAvatarService(config *sc.Config) *AvatarService {
	return &AvatarService{config: config}
}

// avatarKey builds a per-user, date-partitioned object key.
func avatarKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("avatars/%s/%d/%d/%v", userID, d.Year(), d.Month(), uuid.New())
}

func (s *AvatarService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})
	return newS3PresignClient(client), nil
}

// PresignUpload returns a presigned PUT URL and the object key it targets.
func (s *AvatarService) PresignUpload(ctx context.Context, userID string) (url string, key string, err error) {
	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", fmt.Errorf("creating presign client: %w", err)
	}

	key = avatarKey(userID)
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.config.AvatarURLExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presigning put: %w", err)
	}
	return req.URL, key, nil
}

// PresignDownload returns a presigned GET URL for a previously uploaded key.
func (s *AvatarService) PresignDownload(ctx context.Context, key string) (string, error) {
	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating presign client: %w", err)
	}

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.config.AvatarURLExpiry))
	if err != nil {
		return "", fmt.Errorf("presigning get: %w", err)
	}
	return req.URL, nil
}
