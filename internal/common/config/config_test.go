package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: credit
    user: analyst
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))

	require.NoError(t, err)
	assert.Equal(t, "credit-analysis-workers", cfg.App.Name)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 2000, cfg.Analysis.EconomicTimeout)
	assert.Equal(t, 5000, cfg.Analysis.PersistTimeout)
	assert.Equal(t, 30, cfg.Analysis.StaleAfterDays)
	assert.Equal(t, "0 */6 * * *", cfg.Economic.RefreshSchedule)
	assert.Equal(t, "credit-analyses", cfg.Search.Index)
	assert.Equal(t, "High", cfg.Alerts.MinRiskLevel)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "none", cfg.Observability.TraceExporter)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_BROKER", "zeebe:26500")
	body := `
camunda:
  broker_address: ${TEST_BROKER}
database:
  postgres:
    host: localhost
    database: credit
    user: analyst
economic:
  gdp_growth: 4.2
  sector_performance:
    technology: 7.5
workers:
  compute-credit-analysis:
    enabled: true
`
	cfg, err := LoadFromFile(writeConfig(t, body))

	require.NoError(t, err)
	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, 4.2, cfg.Economic.GDPGrowth)
	assert.Equal(t, 7.5, cfg.Economic.SectorPerformance["technology"])

	worker := GetWorkerConfig(cfg, "compute-credit-analysis")
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 30000, worker.Timeout)
	assert.Equal(t, 3, worker.MaxRetries)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		base    string
		wantErr string
	}{
		{
			name:    "missing broker",
			base:    "database:\n  postgres:\n    host: h\n    database: d\n    user: u\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "redis cache without address",
			base:    minimalConfig,
			extra:   "analysis:\n  record_cache_ttl: 60\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "sms without topic",
			base:    minimalConfig,
			extra:   "alerts:\n  sms_enabled: true\n",
			wantErr: "alerts.sns_topic_arn is required",
		},
		{
			name:    "unknown risk level",
			base:    minimalConfig,
			extra:   "alerts:\n  min_risk_level: Scary\n",
			wantErr: "is not a risk level",
		},
		{
			name:    "unknown trace exporter",
			base:    minimalConfig,
			extra:   "observability:\n  trace_exporter: jaeger\n",
			wantErr: "observability.trace_exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RISK_ALERT_TOPIC_ARN", "")
			_, err := LoadFromFile(writeConfig(t, tt.base+tt.extra))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig_FallsBackToDefaults(t *testing.T) {
	cfg := &Config{}

	worker := GetWorkerConfig(cfg, "send-risk-alert")

	assert.True(t, worker.Enabled)
	assert.Equal(t, 3, worker.MaxRetries)
	assert.True(t, IsWorkerEnabled(cfg, "send-risk-alert"))
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, "1.5s", GetDuration(1500).String())
}
