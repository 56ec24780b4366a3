package avatar

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"uk.co.dudmesh.contacts/internal/boot"
	"uk.co.dudmesh.contacts/internal/model"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// Uploader stores avatar images in an S3-compatible bucket and hands back a
// durable public URL.
type Uploader struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func New(config *boot.Config) (*Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(config.AvatarRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AvatarAccessKey,
			config.AvatarSecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading object storage config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if config.AvatarEndpoint != "" {
			o.BaseEndpoint = aws.String(config.AvatarEndpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := config.AvatarBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", config.AvatarBucket, config.AvatarRegion)
	}

	return &Uploader{
		client:  client,
		bucket:  config.AvatarBucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload writes the image to the bucket under a random key and returns its
// public URL. Only JPEG and PNG are accepted.
func (u *Uploader) Upload(ctx context.Context, contentType string, body io.Reader) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", model.ErrorUnsupportedImageType
	}

	key := "avatars/" + uuid.NewString() + ext
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storing avatar: %w", err)
	}

	return u.baseURL + "/" + key, nil
}
