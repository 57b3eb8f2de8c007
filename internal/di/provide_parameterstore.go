package di

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"
	"github.com/savaki/sm-trigger/internal/services"
)

// ProvideSSMClient provides an SSM client for Parameter Store access
// Returns nil unless USE_SSM=true; configuration then comes from environment variables
func ProvideSSMClient(awsConfig aws.Config) *ssm.Client {
	if os.Getenv("USE_SSM") != "true" {
		return nil
	}

	return ssm.NewFromConfig(awsConfig)
}

// ProvideParameterStore provides a ParameterStore implementation
func ProvideParameterStore(ctx context.Context, ssmClient *ssm.Client, env string) services.ParameterStore {
	logger := zerolog.Ctx(ctx)

	if ssmClient == nil {
		logger.Debug().Msg("Using environment variables for configuration")
		return services.NewEnvParameterStore(env)
	}

	logger.Info().Str("env", env).Msg("Using AWS Systems Manager Parameter Store for configuration")
	return services.NewSSMParameterStore(ssmClient, env)
}

// ProvideAppConfig loads application configuration from Parameter Store or environment variables
func ProvideAppConfig(ctx context.Context, store services.ParameterStore) (*services.Config, error) {
	logger := zerolog.Ctx(ctx)

	config, err := store.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Info().
		Str("state_machine_arn", config.StateMachineArn).
		Str("region", config.Region).
		Bool("has_endpoint", config.Endpoint != "").
		Msg("Configuration loaded successfully")

	return config, nil
}
