package camunda

import (
	"context"
	"time"

	"credit-analysis-workers/internal/common/config"
	"credit-analysis-workers/internal/common/errors"
	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/common/metrics"
	"credit-analysis-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CommandTimeout bounds the complete, fail and throw commands sent once a job has run.
const CommandTimeout = 10 * time.Second

// JobFunc processes the raw variables of one job and returns the variables to complete it with.
type JobFunc func(ctx context.Context, variables string) (interface{}, error)

// Runner carries the per-job plumbing shared by every worker: timeout, metrics, tracing,
// completion and error handling.
type Runner struct {
	taskType string
	timeout  time.Duration
	obs      *observability.Observability
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

// NewRunner builds a Runner. obs may be nil.
func NewRunner(taskType string, timeout time.Duration, obs *observability.Observability, log logger.Logger) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		taskType: taskType,
		timeout:  timeout,
		obs:      obs,
		errors:   errors.NewErrorHandler(log),
		logger:   log,
	}
}

// Run executes fn for job and completes, fails or throws on the job accordingly.
func (r *Runner) Run(client worker.JobClient, job entities.Job, fn JobFunc) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var span trace.Span
	if r.obs != nil {
		ctx, span = r.obs.StartSpan(ctx, r.taskType,
			attribute.Int64("job.key", job.GetKey()),
			attribute.Int64("process.instance.key", job.GetProcessInstanceKey()),
		)
		defer span.End()
	}

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := fn(ctx, job.GetVariables())

	// the job context may already have expired; the broker must still hear the outcome
	cmdCtx, cmdCancel := context.WithTimeout(context.Background(), CommandTimeout)
	defer cmdCancel()

	if err != nil {
		code := errorCode(err)
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, code)
		}
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, code).Inc()
		r.record(cmdCtx, "failed", start)
		_ = r.errors.HandleJobError(cmdCtx, client, job, err)
		return
	}

	if err := r.complete(cmdCtx, client, job, output); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, "COMPLETE_FAILED").Inc()
		r.record(cmdCtx, "failed", start)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(time.Since(start).Seconds())
	r.record(cmdCtx, "completed", start)
}

func (r *Runner) record(ctx context.Context, status string, start time.Time) {
	if r.obs == nil {
		return
	}
	r.obs.RecordJobProcessed(ctx, r.taskType, status)
	r.obs.RecordJobDuration(ctx, r.taskType, time.Since(start), status)
}

func (r *Runner) complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}
	return nil
}

func errorCode(err error) string {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return string(errors.ErrCodeInternal)
}

// Open starts a job worker for taskType. It returns nil when the worker is disabled.
func Open(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeoutMs":     wcfg.Timeout,
	})
	return jobWorker
}
