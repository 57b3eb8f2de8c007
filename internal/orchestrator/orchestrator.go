package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/savaki/sm-trigger/internal/errors"
	"github.com/segmentio/ksuid"
)

// S3Object identifies the object that triggered the execution
type S3Object struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// ExecutionInput represents the input payload for Step Functions executions
type ExecutionInput struct {
	S3Object S3Object `json:"s3Object"`
}

// Execution describes a started Step Functions execution
type Execution struct {
	ExecutionArn string
	Name         string
	StartDate    time.Time
	StatusCode   int // HTTP status of the StartExecution response, 0 if unknown
}

// StepFunctionsAPI is the subset of the Step Functions client used by the Orchestrator
type StepFunctionsAPI interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
}

// Orchestrator starts executions of a single state machine
type Orchestrator struct {
	sfnClient       StepFunctionsAPI
	stateMachineArn string
}

// New creates a new Orchestrator instance
func New(sfnClient StepFunctionsAPI, stateMachineArn string) *Orchestrator {
	return &Orchestrator{
		sfnClient:       sfnClient,
		stateMachineArn: stateMachineArn,
	}
}

// StateMachineArn returns the ARN of the target state machine
func (o *Orchestrator) StateMachineArn() string {
	return o.stateMachineArn
}

// StartExecution starts a Step Functions execution with input serialized as JSON.
// Failures from the service are wrapped with errors.ErrServiceInvocation.
func (o *Orchestrator) StartExecution(ctx context.Context, input ExecutionInput) (*Execution, error) {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal step function input: %w", err)
	}

	executionName := ksuid.New().String()

	result, err := o.sfnClient.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(o.stateMachineArn),
		Name:            aws.String(executionName),
		Input:           aws.String(string(inputJSON)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrServiceInvocation, err)
	}

	return &Execution{
		ExecutionArn: aws.ToString(result.ExecutionArn),
		Name:         executionName,
		StartDate:    aws.ToTime(result.StartDate),
		StatusCode:   StatusCode(result.ResultMetadata),
	}, nil
}

// StatusCode returns the HTTP status code of the raw response recorded in the
// operation's result metadata, or 0 when no response was recorded.
func StatusCode(metadata middleware.Metadata) int {
	switch raw := awsmiddleware.GetRawResponse(metadata).(type) {
	case *smithyhttp.Response:
		if raw != nil && raw.Response != nil {
			return raw.StatusCode
		}
	case *http.Response:
		if raw != nil {
			return raw.StatusCode
		}
	}
	return 0
}
