package di

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/savaki/sm-trigger/internal/errors"
	"github.com/savaki/sm-trigger/internal/orchestrator"
	"github.com/savaki/sm-trigger/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"
)

const testStateMachineArn = "arn:aws:states:us-east-1:123456789012:stateMachine:ingest"

type Database struct {
	Name string
}

type Repository struct {
	DB *Database
}

// setEnv isolates the container from the caller's AWS environment
func setEnv(t *testing.T, arn string) {
	t.Helper()
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "blah")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "blah")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")
	t.Setenv("AWS_ENDPOINT_URL", "")
	t.Setenv("AWS_ENDPOINT_URL_SFN", "")
	t.Setenv("USE_SSM", "")
	t.Setenv("STATE_MACHINE_ARN", arn)
	t.Setenv("AWS_REGION_OVERRIDE", "")
	t.Setenv("SFN_ENDPOINT", "")
}

func TestNew_ProvidesEnvironment(t *testing.T) {
	container, err := New("test-env")
	require.NoError(t, err)

	env, err := Get[string](container)
	require.NoError(t, err)
	assert.Equal(t, "test-env", env)
}

func TestNew_DuplicateProvider(t *testing.T) {
	_, err := New("dev",
		WithProviders(
			func() *Database { return &Database{Name: "db1"} },
			func() *Database { return &Database{Name: "db2"} },
		),
	)
	assert.Error(t, err)
}

func TestWithProviders_NestedDependencies(t *testing.T) {
	container, err := New("dev",
		WithProviders(
			func() *Database { return &Database{Name: "dev-db"} },
		),
		WithProviders(
			func(db *Database) *Repository { return &Repository{DB: db} },
		),
	)
	require.NoError(t, err)

	repo := MustGet[*Repository](container)
	assert.Equal(t, "dev-db", repo.DB.Name)
}

func TestMustGet_Panics(t *testing.T) {
	container, err := New("dev")
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = MustGet[*Database](container)
	})
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	container, err := New("dev", WithLogger(logger))
	require.NoError(t, err)

	ctx := MustGet[context.Context](container)
	zerolog.Ctx(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestContainer_Interface(t *testing.T) {
	var _ Container = (*dig.Container)(nil)
}

func TestProvideOrchestrator(t *testing.T) {
	t.Run("resolves with state machine arn", func(t *testing.T) {
		setEnv(t, testStateMachineArn)

		container, err := New("dev")
		require.NoError(t, err)

		orch, err := Get[*orchestrator.Orchestrator](container)
		require.NoError(t, err)
		assert.Equal(t, testStateMachineArn, orch.StateMachineArn())
	})

	t.Run("fails without state machine arn", func(t *testing.T) {
		setEnv(t, "")

		container, err := New("dev")
		require.NoError(t, err)

		orch, err := Get[*orchestrator.Orchestrator](container)
		assert.Nil(t, orch)
		assert.ErrorIs(t, dig.RootCause(err), errors.ErrStateMachineARNRequired)
	})
}

func TestProvideStepFunctions(t *testing.T) {
	setEnv(t, testStateMachineArn)
	ctx := context.Background()

	awsConfig, err := ProvideAWSConfig(ctx)
	require.NoError(t, err)

	tests := []struct {
		name         string
		config       services.Config
		wantRegion   string
		wantEndpoint string
	}{
		{
			name:       "default region",
			config:     services.Config{},
			wantRegion: "us-east-1",
		},
		{
			name:       "pinned region",
			config:     services.Config{Region: "eu-west-1"},
			wantRegion: "eu-west-1",
		},
		{
			name:         "endpoint override",
			config:       services.Config{Endpoint: "http://localhost:8083"},
			wantRegion:   "us-east-1",
			wantEndpoint: "http://localhost:8083",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := ProvideStepFunctions(ctx, awsConfig, &tt.config)
			options := client.Options()

			assert.Equal(t, tt.wantRegion, options.Region)
			if tt.wantEndpoint == "" {
				assert.Nil(t, options.BaseEndpoint)
			} else {
				require.NotNil(t, options.BaseEndpoint)
				assert.Equal(t, tt.wantEndpoint, *options.BaseEndpoint)
			}
		})
	}
}

func TestProvideParameterStore_Env(t *testing.T) {
	setEnv(t, testStateMachineArn)

	store := ProvideParameterStore(context.Background(), nil, "dev")
	_, ok := store.(*services.EnvParameterStore)
	assert.True(t, ok, "expected *services.EnvParameterStore, got %T", store)
}

func TestProvideSSMClient(t *testing.T) {
	setEnv(t, testStateMachineArn)

	awsConfig, err := ProvideAWSConfig(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ProvideSSMClient(awsConfig))

	t.Setenv("USE_SSM", "true")
	assert.NotNil(t, ProvideSSMClient(awsConfig))
}

func TestProvideLogger_Level(t *testing.T) {
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "")
	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, ProvideLogger().GetLevel())

	t.Setenv("LOG_LEVEL", "bogus")
	assert.Equal(t, zerolog.InfoLevel, ProvideLogger().GetLevel())
}
