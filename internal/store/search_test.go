package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"credit-analysis-workers/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeTransport answers Elasticsearch requests from a status table keyed by "METHOD path".
type fakeTransport struct {
	mu       sync.Mutex
	statuses map[string]int
	requests []recordedRequest
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body := ""
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: req.Method, Path: req.URL.Path, Body: body})
	status, ok := f.statuses[req.Method+" "+req.URL.Path]
	f.mu.Unlock()
	if !ok {
		status = http.StatusOK
	}

	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(`{"acknowledged":true,"result":"created"}`)),
		Request:    req,
	}, nil
}

func createTestIndex(t *testing.T, statuses map[string]int) (*AnalysisIndex, *fakeTransport) {
	t.Helper()
	transport := &fakeTransport{statuses: statuses}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://es.test:9200"},
		Transport: transport,
	})
	require.NoError(t, err)
	return NewAnalysisIndex(client, "credit-analyses", logger.NewTestLogger(t)), transport
}

func TestAnalysisIndex_IndexDocument(t *testing.T) {
	index, transport := createTestIndex(t, nil)
	doc := NewAnalysisDocument("c-1", sampleEntry(), time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC))

	err := index.Index(context.Background(), doc)

	require.NoError(t, err)
	require.Len(t, transport.requests, 1)
	req := transport.requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/credit-analyses/_doc/c-1", req.Path)

	var sent AnalysisDocument
	require.NoError(t, json.Unmarshal([]byte(req.Body), &sent))
	assert.Equal(t, "A", sent.Grade)
	assert.Equal(t, "abc123", sent.DataHash)
	assert.Equal(t, 88.0, sent.OverallScore)
}

func TestAnalysisIndex_IndexErrorStatus(t *testing.T) {
	index, _ := createTestIndex(t, map[string]int{"PUT /credit-analyses/_doc/c-1": http.StatusServiceUnavailable})

	err := index.Index(context.Background(), NewAnalysisDocument("c-1", sampleEntry(), time.Now()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestAnalysisIndex_EnsureIndex(t *testing.T) {
	t.Run("creates missing index", func(t *testing.T) {
		index, transport := createTestIndex(t, map[string]int{"HEAD /credit-analyses": http.StatusNotFound})

		require.NoError(t, index.EnsureIndex(context.Background()))

		require.Len(t, transport.requests, 2)
		assert.Equal(t, http.MethodPut, transport.requests[1].Method)
		assert.Contains(t, transport.requests[1].Body, `"defaultProbability"`)
	})

	t.Run("existing index is left alone", func(t *testing.T) {
		index, transport := createTestIndex(t, nil)

		require.NoError(t, index.EnsureIndex(context.Background()))

		assert.Len(t, transport.requests, 1)
	})

	t.Run("lost creation race is fine", func(t *testing.T) {
		index, _ := createTestIndex(t, map[string]int{
			"HEAD /credit-analyses": http.StatusNotFound,
			"PUT /credit-analyses":  http.StatusBadRequest,
		})

		assert.NoError(t, index.EnsureIndex(context.Background()))
	})

	t.Run("server error fails", func(t *testing.T) {
		index, _ := createTestIndex(t, map[string]int{
			"HEAD /credit-analyses": http.StatusNotFound,
			"PUT /credit-analyses":  http.StatusInternalServerError,
		})

		assert.Error(t, index.EnsureIndex(context.Background()))
	})
}

func TestNewAnalysisDocument(t *testing.T) {
	entry := sampleEntry()
	entry.Result.Risk.DefaultProbability = 42
	entry.Result.Risk.RiskLevel = "High"
	entry.Result.DefaultPattern.PatternType = "Situational"
	entry.Result.Decision.Decision = "Manual Review"

	doc := NewAnalysisDocument("c-9", entry, time.Date(2024, 7, 2, 5, 0, 0, 0, time.FixedZone("IST", 19800)))

	assert.Equal(t, "c-9", doc.ClientID)
	assert.Equal(t, 42.0, doc.DefaultProbability)
	assert.Equal(t, "High", doc.RiskLevel)
	assert.Equal(t, "Situational", doc.PatternType)
	assert.Equal(t, "Manual Review", doc.Decision)
	assert.Equal(t, time.UTC, doc.IndexedAt.Location())
}
