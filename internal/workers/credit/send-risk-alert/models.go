// internal/workers/credit/send-risk-alert/models.go
package sendriskalert

type Input struct {
	ClientID           string  `json:"clientId"`
	ClientName         string  `json:"clientName,omitempty"`
	RecipientEmail     string  `json:"recipientEmail,omitempty"`
	RecipientPhone     string  `json:"recipientPhone,omitempty"`
	Grade              string  `json:"grade"`
	RiskLevel          string  `json:"riskLevel"`
	DefaultProbability float64 `json:"defaultProbability"`
}

type Output struct {
	AlertID        string   `json:"alertId"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels"`
	FailedChannels []string `json:"failedChannels,omitempty"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent    = "sent"
	StatusPartial = "partial"
	StatusSkipped = "skipped"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
