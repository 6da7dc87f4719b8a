// internal/common/camunda/camunda_test.go
package camunda

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"credit-analysis-workers/internal/common/config"
	"credit-analysis-workers/internal/common/errors"
	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/grpc"
)

// ==========================
// Retry
// ==========================

func fastRetry(max int) *RetryConfig {
	return &RetryConfig{MaxRetries: max, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetry(5), logger.NewTestLogger(t), "zeebe connect", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return stderrors.New("dial tcp 127.0.0.1:26500: connection refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetry(5), logger.NewTestLogger(t), "zeebe connect", func(ctx context.Context) error {
		attempts++
		return stderrors.New("password authentication failed")
	})

	assert.ErrorContains(t, err, "zeebe connect failed")
	assert.Equal(t, 1, attempts)
}

func TestRetry_GivesUp(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetry(3), logger.NewTestLogger(t), "zeebe connect", func(ctx context.Context) error {
		attempts++
		return stderrors.New("service unavailable")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	err := Retry(ctx, cfg, logger.NewNoOpLogger(), "zeebe connect", func(ctx context.Context) error {
		return stderrors.New("i/o timeout")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(stderrors.New("rpc error: code = Unavailable desc = connection error")))
	assert.True(t, IsTransient(stderrors.New("context deadline exceeded")))
	assert.False(t, IsTransient(stderrors.New("invalid job type")))
}

// ==========================
// Worker plumbing
// ==========================

func TestOpen_DisabledWorker(t *testing.T) {
	w := Open(nil, "compute-credit-analysis", config.WorkerConfig{Enabled: false}, nil, logger.NewTestLogger(t))
	assert.Nil(t, w)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "CLIENT_NOT_FOUND", errorCode(errors.NewClientNotFoundError("c-1")))
	assert.Equal(t, "INTERNAL_ERROR", errorCode(stderrors.New("boom")))
}

func TestNewRunner_DefaultTimeout(t *testing.T) {
	r := NewRunner("compute-credit-analysis", 0, nil, logger.NewNoOpLogger())
	assert.Equal(t, 30*time.Second, r.timeout)
	assert.Equal(t, "compute-credit-analysis", r.taskType)
}

// ==========================
// Runner
// ==========================

// recordingGateway captures the job commands a Runner sends and the state of the
// context each one was sent on.
type recordingGateway struct {
	pb.GatewayClient

	mu        sync.Mutex
	completed []*pb.CompleteJobRequest
	failed    []*pb.FailJobRequest
	thrown    []*pb.ThrowErrorRequest
	ctxErrs   []error
	sendErr   error
}

func (g *recordingGateway) CompleteJob(ctx context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = append(g.completed, in)
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	if g.sendErr != nil {
		return nil, g.sendErr
	}
	return &pb.CompleteJobResponse{}, nil
}

func (g *recordingGateway) FailJob(ctx context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed = append(g.failed, in)
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	if g.sendErr != nil {
		return nil, g.sendErr
	}
	return &pb.FailJobResponse{}, nil
}

func (g *recordingGateway) ThrowError(ctx context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.thrown = append(g.thrown, in)
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	if g.sendErr != nil {
		return nil, g.sendErr
	}
	return &pb.ThrowErrorResponse{}, nil
}

func noRetry(context.Context, error) bool { return false }

type recordingJobClient struct {
	gateway *recordingGateway
}

func (c recordingJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gateway, noRetry)
}

func (c recordingJobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gateway, noRetry)
}

func (c recordingJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gateway, noRetry)
}

func createTestJob(retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                42,
		Type:               "compute-credit-analysis",
		ProcessInstanceKey: 7,
		Retries:            retries,
		Variables:          `{"clientId":"c-1"}`,
	}}
}

// waitForDeadline blocks until the job context expires and reports it the way a
// timed-out store call would.
func waitForDeadline(ctx context.Context, _ string) (interface{}, error) {
	<-ctx.Done()
	return nil, errors.NewRecordLookupFailedError("c-1", ctx.Err())
}

func TestRunner_CompletesJob(t *testing.T) {
	gateway := &recordingGateway{}
	r := NewRunner("compute-credit-analysis", time.Second, nil, logger.NewTestLogger(t))

	r.Run(recordingJobClient{gateway}, createTestJob(3), func(ctx context.Context, vars string) (interface{}, error) {
		assert.JSONEq(t, `{"clientId":"c-1"}`, vars)
		return map[string]interface{}{"grade": "A"}, nil
	})

	require.Len(t, gateway.completed, 1)
	assert.Equal(t, int64(42), gateway.completed[0].JobKey)
	assert.JSONEq(t, `{"grade":"A"}`, gateway.completed[0].Variables)
	assert.Empty(t, gateway.failed)
	assert.Empty(t, gateway.thrown)
}

func TestRunner_FailsTimedOutJobOnLiveContext(t *testing.T) {
	gateway := &recordingGateway{}
	r := NewRunner("compute-credit-analysis", 10*time.Millisecond, nil, logger.NewTestLogger(t))

	r.Run(recordingJobClient{gateway}, createTestJob(3), waitForDeadline)

	require.Len(t, gateway.failed, 1)
	assert.Equal(t, int64(42), gateway.failed[0].JobKey)
	assert.Equal(t, int32(2), gateway.failed[0].Retries)
	require.Len(t, gateway.ctxErrs, 1)
	assert.NoError(t, gateway.ctxErrs[0])
	assert.Empty(t, gateway.completed)
}

func TestRunner_ThrowsOnLastRetryAfterTimeout(t *testing.T) {
	gateway := &recordingGateway{}
	r := NewRunner("compute-credit-analysis", 10*time.Millisecond, nil, logger.NewTestLogger(t))

	r.Run(recordingJobClient{gateway}, createTestJob(1), waitForDeadline)

	require.Len(t, gateway.thrown, 1)
	assert.Equal(t, "RECORD_LOOKUP_FAILED", gateway.thrown[0].ErrorCode)
	require.Len(t, gateway.ctxErrs, 1)
	assert.NoError(t, gateway.ctxErrs[0])
}

func TestHandleJobError_ReturnsSendError(t *testing.T) {
	gateway := &recordingGateway{sendErr: stderrors.New("unavailable")}
	h := errors.NewErrorHandler(logger.NewTestLogger(t))

	err := h.HandleJobError(context.Background(), recordingJobClient{gateway}, createTestJob(3), errors.NewClientNotFoundError("c-1"))

	assert.ErrorContains(t, err, "unavailable")
	assert.Len(t, gateway.thrown, 1)
}

func TestRunner_RecordsJobSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := observability.New("credit-analysis-workers-test", observability.WithSpanProcessor(recorder))
	defer obs.Shutdown()

	gateway := &recordingGateway{}
	r := NewRunner("index-credit-analysis", time.Second, obs, logger.NewTestLogger(t))

	r.Run(recordingJobClient{gateway}, createTestJob(3), func(ctx context.Context, _ string) (interface{}, error) {
		return nil, errors.NewAnalysisNotFoundError("c-1")
	})

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "index-credit-analysis", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "ANALYSIS_NOT_FOUND", ended[0].Status().Description)
	assert.Len(t, gateway.thrown, 1)
}
