package cli

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// InitS3Client loads the default AWS configuration (environment, shared
// config, instance role) and returns an S3 client with its presigner.
func InitS3Client(ctx context.Context) (*s3.Client, *s3.PresignClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")

	client := s3.NewFromConfig(cfg)
	return client, s3.NewPresignClient(client), nil
}
