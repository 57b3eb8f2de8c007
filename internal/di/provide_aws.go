package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/rs/zerolog"
	"github.com/savaki/sm-trigger/internal/errors"
	"github.com/savaki/sm-trigger/internal/orchestrator"
	"github.com/savaki/sm-trigger/internal/services"
)

// ProvideContext returns a background context carrying the container's logger
func ProvideContext(logger zerolog.Logger) context.Context {
	return logger.WithContext(context.Background())
}

func ProvideAWSConfig(ctx context.Context) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx)
}

// ProvideStepFunctions creates the Step Functions client. The region is pinned
// when config.Region is set; otherwise the SDK's default resolution applies.
// An endpoint override (Step Functions Local) uses static dummy credentials.
func ProvideStepFunctions(ctx context.Context, awsConfig aws.Config, config *services.Config) *sfn.Client {
	logger := zerolog.Ctx(ctx)

	return sfn.NewFromConfig(awsConfig, func(o *sfn.Options) {
		if config.Region != "" {
			logger.Info().Str("region", config.Region).Msg("Pinning Step Functions client region")
			o.Region = config.Region
		}
		if config.Endpoint != "" {
			logger.Info().Str("endpoint", config.Endpoint).Msg("Using Step Functions endpoint override")
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.Credentials = credentials.NewStaticCredentialsProvider("local", "local", "")
		}
	})
}

func ProvideOrchestrator(sfnClient *sfn.Client, config *services.Config) (*orchestrator.Orchestrator, error) {
	if config.StateMachineArn == "" {
		return nil, errors.ErrStateMachineARNRequired
	}

	return orchestrator.New(sfnClient, config.StateMachineArn), nil
}
