package economic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keyRateResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <KeyRateResponse xmlns="http://web.cbr.ru/">
      <KeyRateResult>
        <diffgr:diffgram xmlns:diffgr="urn:schemas-microsoft-com:xml-diffgram-v1">
          <KeyRate xmlns="">
            <KR><DT>2024-06-10T00:00:00+03:00</DT><Rate>6.25</Rate></KR>
            <KR><DT>2024-06-28T00:00:00+03:00</DT><Rate>6.50</Rate></KR>
            <KR><DT>2024-06-01T00:00:00+03:00</DT><Rate>6.00</Rate></KR>
          </KeyRate>
        </diffgr:diffgram>
      </KeyRateResult>
    </KeyRateResponse>
  </soap:Body>
</soap:Envelope>`

// ==========================
// Snapshot
// ==========================

func TestDefaultSnapshot(t *testing.T) {
	s := DefaultSnapshot()

	assert.Equal(t, 6.5, s.GDPGrowth)
	assert.Equal(t, 5.0, s.Inflation)
	assert.Equal(t, 6.5, s.PolicyRate)
	assert.Equal(t, 5.0, s.Unemployment)
	assert.Equal(t, models.SentimentNeutral, s.MarketSentiment)
	assert.Equal(t, SourceDefault, s.Source)
	assert.Len(t, s.SectorPerformance, len(Sectors))
	for _, v := range s.SectorPerformance {
		assert.Equal(t, 3.0, v)
	}
}

func TestIndicators_Snapshot(t *testing.T) {
	s := Indicators{
		GDPGrowth:         7.2,
		MarketSentiment:   models.SentimentPositive,
		SectorPerformance: map[string]float64{"technology": 8},
	}.Snapshot()

	assert.Equal(t, 7.2, s.GDPGrowth)
	assert.Equal(t, 5.0, s.Inflation)
	assert.Equal(t, models.SentimentPositive, s.MarketSentiment)
	assert.Equal(t, 8.0, s.SectorPerformance["technology"])
	assert.Equal(t, 3.0, s.SectorPerformance["retail"])
	assert.Equal(t, SourceConfigured, s.Source)
}

func TestStaticProvider_ReturnsCopies(t *testing.T) {
	p := NewStaticProvider(DefaultSnapshot())

	first, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	first.SectorPerformance["technology"] = -50

	second, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.0, second.SectorPerformance["technology"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// ==========================
// Key rate client
// ==========================

func TestKeyRateClient_ParsesLatestRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "http://web.cbr.ru/KeyRate", r.Header.Get("SOAPAction"))
		w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
		_, _ = w.Write([]byte(keyRateResponse))
	}))
	defer server.Close()

	client := NewKeyRateClient(server.URL, 2*time.Second, logger.NewTestLogger(t))

	rate, date, err := client.KeyRate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 6.5, rate)
	assert.Equal(t, "2024-06-28", date)
}

func TestKeyRateClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, "", "status 500"},
		{"not xml", http.StatusOK, "not xml at all <", "parse key rate XML"},
		{"no rows", http.StatusOK, `<Envelope><Body/></Envelope>`, "no key rate data"},
		{"bad rate", http.StatusOK, `<KeyRate><KR><Rate>abc</Rate></KR></KeyRate>`, "rate element not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewKeyRateClient(server.URL, 2*time.Second, logger.NewNoOpLogger())
			_, _, err := client.KeyRate(context.Background())

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// ==========================
// Refreshing provider
// ==========================

type fakeKeyRate struct {
	mu    sync.Mutex
	rate  float64
	err   error
	calls int
}

func (f *fakeKeyRate) KeyRate(ctx context.Context) (float64, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, "", f.err
	}
	return f.rate, "2024-06-28", nil
}

func TestRefreshingProvider_NoSnapshotBeforeRefresh(t *testing.T) {
	p := NewRefreshingProvider(Indicators{}, &fakeKeyRate{rate: 6.5}, time.Second, logger.NewNoOpLogger())

	_, err := p.Snapshot(context.Background())

	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestRefreshingProvider_RefreshKeepsPreviousOnFailure(t *testing.T) {
	source := &fakeKeyRate{rate: 7.25}
	p := NewRefreshingProvider(Indicators{Inflation: 6.8}, source, time.Second, logger.NewTestLogger(t))

	require.NoError(t, p.Refresh(context.Background()))
	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.25, snap.PolicyRate)
	assert.Equal(t, 6.8, snap.Inflation)
	assert.Equal(t, SourceCentralBank, snap.Source)
	assert.Equal(t, "2024-06-28", snap.AsOf)

	source.mu.Lock()
	source.err = errors.New("connection refused")
	source.mu.Unlock()

	assert.Error(t, p.Refresh(context.Background()))
	snap, err = p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.25, snap.PolicyRate)
}

func TestRefreshingProvider_StartAndStop(t *testing.T) {
	source := &fakeKeyRate{rate: 6.5}
	p := NewRefreshingProvider(Indicators{}, source, time.Second, logger.NewNoOpLogger())

	assert.Error(t, p.Start(context.Background(), "not a schedule"))

	require.NoError(t, p.Start(context.Background(), "@every 1h"))
	defer p.Stop()

	_, err := p.Snapshot(context.Background())
	assert.NoError(t, err)
	source.mu.Lock()
	assert.Equal(t, 1, source.calls)
	source.mu.Unlock()
}
