// internal/workers/credit/send-risk-alert/handler.go
package sendriskalert

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"credit-analysis-workers/internal/analysis/risk"
	"credit-analysis-workers/internal/common/camunda"
	"credit-analysis-workers/internal/common/errors"
	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-risk-alert"
)

// EmailSender is satisfied by aws.EmailSender.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

// SMSSender is satisfied by aws.SMSSender.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

const (
	emailSubject = "Credit risk alert: {{clientId}} rated {{riskLevel}}"
	emailBody    = "Client {{clientName}} ({{clientId}}) was graded {{grade}} with a default probability of " +
		"{{defaultProbability}}%, risk level {{riskLevel}}. Review the credit analysis before extending new credit."
	smsBody = "Risk alert {{clientId}}: grade {{grade}}, PD {{defaultProbability}}%, {{riskLevel}}."
)

type Handler struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	runner *camunda.Runner
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, email EmailSender, sms SMSSender, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		email:  email,
		sms:    sms,
		runner: camunda.NewRunner(TaskType, config.Timeout, obs, log),
		logger: log,
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context, variables string) (interface{}, error) {
		var input Input
		if err := json.Unmarshal([]byte(variables), &input); err != nil {
			return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
		}
		return h.execute(ctx, &input)
	})
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, errors.NewInvalidInputError("clientId is required")
	}
	level, ok := risk.LevelRank(input.RiskLevel)
	if !ok {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown riskLevel %q", input.RiskLevel))
	}

	data := map[string]interface{}{
		"clientId":           input.ClientID,
		"clientName":         input.ClientName,
		"grade":              input.Grade,
		"riskLevel":          input.RiskLevel,
		"defaultProbability": fmt.Sprintf("%.2f", input.DefaultProbability),
	}

	output := &Output{
		AlertID:  uuid.New().String(),
		Channels: []string{},
		SentAt:   h.now().UTC().Format(time.RFC3339),
	}
	var lastErr error

	if h.config.EmailEnabled && h.email != nil && input.RecipientEmail != "" {
		_, err := h.email.SendEmail(ctx, input.RecipientEmail,
			renderTemplate(emailSubject, data), renderTemplate(emailBody, data))
		if err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":    err,
				"clientId": input.ClientID,
			})
			output.FailedChannels = append(output.FailedChannels, ChannelEmail)
			lastErr = errors.NewRiskAlertSendFailedError(ChannelEmail, err)
		} else {
			output.Channels = append(output.Channels, ChannelEmail)
		}
	}

	if h.config.SMSEnabled && h.sms != nil && level >= h.minLevel() {
		if _, err := h.sms.SendSMS(ctx, input.RecipientPhone, renderTemplate(smsBody, data)); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":    err,
				"clientId": input.ClientID,
			})
			output.FailedChannels = append(output.FailedChannels, ChannelSMS)
			lastErr = errors.NewRiskAlertSendFailedError(ChannelSMS, err)
		} else {
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	// retrying after a partial delivery would duplicate the delivered channel
	switch {
	case len(output.Channels) == 0 && lastErr != nil:
		return nil, lastErr
	case len(output.Channels) == 0:
		output.Status = StatusSkipped
	case len(output.FailedChannels) > 0:
		output.Status = StatusPartial
	default:
		output.Status = StatusSent
	}

	h.logger.Info("risk alert processed", map[string]interface{}{
		"clientId": input.ClientID,
		"status":   output.Status,
		"channels": output.Channels,
	})
	return output, nil
}

func (h *Handler) minLevel() int {
	if rank, ok := risk.LevelRank(h.config.MinRiskLevel); ok {
		return rank
	}
	rank, _ := risk.LevelRank("High")
	return rank
}

// renderTemplate replaces {{key}} placeholders and drops any left without a value.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
