package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/chefscript/backend/config"
)

// ImageStore mirrors provider-hosted images into S3 and stores composited
// template output. Provider URLs expire; the S3 copy is what we hand back to
// the user.
type ImageStore struct {
	s3Config *config.S3Config
	client   *http.Client
}

// NewImageStore creates a new ImageStore instance
func NewImageStore(s3Config *config.S3Config) *ImageStore {
	return &ImageStore{
		s3Config: s3Config,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// MirrorImage downloads an image from a provider URL and uploads it to S3.
// On upload failure the original URL is returned as a fallback.
func (s *ImageStore) MirrorImage(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image, status: %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}

	fileName := fmt.Sprintf("recipe-images/%s.png", uuid.New().String())
	s3URL, err := s.Upload(ctx, imageData, fileName, "image/png")
	if err != nil {
		log.Printf("[ImageStore] Failed to upload to S3, returning original URL: %v", err)
		return imageURL, nil
	}
	return s3URL, nil
}

// Upload uploads image data to S3 and returns the public URL
func (s *ImageStore) Upload(ctx context.Context, imageData []byte, fileName, contentType string) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(imageData),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, fileName)
	log.Printf("[ImageStore] Uploaded image to S3: %s", publicURL)
	return publicURL, nil
}
