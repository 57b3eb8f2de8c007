package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/savaki/sm-trigger/internal/di"
	"github.com/savaki/sm-trigger/internal/errors"
	"github.com/savaki/sm-trigger/internal/orchestrator"
	"github.com/urfave/cli/v2"
)

const (
	MessageSuccess = "State Machine successfully executed"
	MessageFailure = "Unable to execute State Machine. Kindly check configurations"
)

// Result summarizes the outcome of a StartExecution call
type Result struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Executor starts state machine executions
type Executor interface {
	StartExecution(ctx context.Context, input orchestrator.ExecutionInput) (*orchestrator.Execution, error)
}

type Handler struct {
	executor Executor
}

func NewHandler(executor Executor) *Handler {
	return &Handler{
		executor: executor,
	}
}

// HandleS3Event starts one execution for the first record of the event and
// returns its outcome. Remaining records are ignored. An event with no
// records returns a nil Result.
func (h *Handler) HandleS3Event(ctx context.Context, event events.S3Event) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if len(event.Records) == 0 {
		logger.Info().Msg("No S3 records in event")
		return nil, nil
	}
	if n := len(event.Records); n > 1 {
		logger.Warn().
			Int("record_count", n).
			Msg("Only the first S3 record is processed")
	}

	result, err := h.processS3Record(ctx, &event.Records[0])
	if err != nil {
		logger.Error().Err(err).Msg("Error processing S3 record")
		return nil, err
	}
	return result, nil
}

func (h *Handler) processS3Record(ctx context.Context, record *events.S3EventRecord) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	bucket := record.S3.Bucket.Name
	key := record.S3.Object.Key
	if bucket == "" {
		return nil, fmt.Errorf("%w: missing bucket name", errors.ErrMalformedEvent)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: missing object key", errors.ErrMalformedEvent)
	}

	execution, err := h.executor.StartExecution(ctx, orchestrator.ExecutionInput{
		S3Object: orchestrator.S3Object{
			Bucket: bucket,
			Key:    key,
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("bucket", bucket).
		Str("key", key).
		Str("execution_arn", execution.ExecutionArn).
		Str("execution_name", execution.Name).
		Time("start_date", execution.StartDate).
		Int("status_code", execution.StatusCode).
		Msg("Started Step Functions execution")

	return newResult(execution.StatusCode), nil
}

func newResult(statusCode int) *Result {
	message := MessageFailure
	if statusCode == http.StatusOK {
		message = MessageSuccess
	}
	return &Result{
		Message: message,
		Code:    strconv.Itoa(statusCode),
	}
}

func main() {
	logger := di.ProvideLogger().With().Str("lambda", "sm-trigger").Logger()

	env := os.Getenv("ENV")
	if env == "" {
		env = "dev"
	}

	container, err := di.New(env, di.WithLogger(logger))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create DI container")
		os.Exit(1)
	}

	// Configuration errors surface here, before any event is processed
	orch, err := di.Get[*orchestrator.Orchestrator](container)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize orchestrator")
		os.Exit(1)
	}

	handler := NewHandler(orch)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		// Wrap handler to inject logger into context
		wrappedHandler := func(ctx context.Context, event events.S3Event) (*Result, error) {
			ctx = logger.WithContext(ctx)
			return handler.HandleS3Event(ctx, event)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "sm-trigger",
		Usage: "Simulate an S3 object created event to start a state machine execution",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "bucket",
				Usage:    "S3 bucket name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "key",
				Usage:    "S3 object key",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			event := newS3Event(c.String("bucket"), c.String("key"))

			ctx := logger.WithContext(c.Context)
			result, err := handler.HandleS3Event(ctx, event)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal result: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}

func newS3Event(bucket, key string) events.S3Event {
	return events.S3Event{
		Records: []events.S3EventRecord{
			{
				EventSource: "aws:s3",
				EventName:   "ObjectCreated:Put",
				S3: events.S3Entity{
					Bucket: events.S3Bucket{
						Name: bucket,
					},
					Object: events.S3Object{
						Key: key,
					},
				},
			},
		},
	}
}
