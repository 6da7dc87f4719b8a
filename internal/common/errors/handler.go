// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler fails or throws a Zeebe job depending on the error's retry policy.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decide reports what HandleJobError will do with err on a job with jobRetries remaining:
// the BPMN error, and the retries to fail with (0 means throw).
func Decide(err error, jobRetries int32) (*BPMNError, int) {
	stdErr := normalizeError(err)
	bpmnErr := ConvertToBPMNError(stdErr)
	if bpmnErr.Retries == 0 || jobRetries <= 1 {
		return bpmnErr, 0
	}
	// job.Retries already counts this attempt
	retries := int(jobRetries) - 1
	if retries > bpmnErr.Retries {
		retries = bpmnErr.Retries
	}
	return bpmnErr, retries
}

// HandleJobError retries retryable errors while the job has retries left and throws a BPMN
// error otherwise. A command that cannot be sent is logged and returned.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	bpmnErr, retries := Decide(err, job.Retries)
	h.logError(job, bpmnErr, retries)

	var sendErr error
	command := "fail"
	if retries > 0 {
		sendErr = h.failJob(ctx, client, job, bpmnErr, retries)
	} else {
		command = "throw error"
		sendErr = h.throwBPMNError(ctx, client, job, bpmnErr)
	}
	if sendErr != nil {
		h.logger.Error("failed to send "+command+" command", map[string]interface{}{
			"jobKey":    job.Key,
			"errorCode": bpmnErr.Code,
			"error":     sendErr.Error(),
		})
	}
	return sendErr
}

func normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, retries int) error {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(retries)).
		ErrorMessage(bpmnErr.Message)

	if varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			_, err = withVars.Send(ctx)
			return err
		}
	}
	_, err := cmd.Send(ctx)
	return err
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) error {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			_, err = withVars.Send(ctx)
			return err
		}
	}
	_, err := cmd.Send(ctx)
	return err
}

func (h *ErrorHandler) logError(job entities.Job, bpmnErr *BPMNError, retries int) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        bpmnErr.Code,
		"message":          bpmnErr.Message,
		"details":          bpmnErr.Details,
		"retryable":        bpmnErr.Retryable,
		"retries":          retries,
		"errorCategory":    GetErrorCategory(ErrorCode(bpmnErr.Code)),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
