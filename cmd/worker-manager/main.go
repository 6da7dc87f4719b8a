// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"credit-analysis-workers/internal/analysis"
	"credit-analysis-workers/internal/analysis/scoring"
	"credit-analysis-workers/internal/common/aws"
	"credit-analysis-workers/internal/common/camunda"
	"credit-analysis-workers/internal/common/config"
	"credit-analysis-workers/internal/common/database"
	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/common/observability"
	"credit-analysis-workers/internal/economic"
	"credit-analysis-workers/internal/store"

	cca "credit-analysis-workers/internal/workers/credit/compute-credit-analysis"
	ica "credit-analysis-workers/internal/workers/credit/index-credit-analysis"
	sra "credit-analysis-workers/internal/workers/credit/send-risk-alert"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zapLog := logger.New("info", "console", "stdout")
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	spanExporter, err := observability.NewSpanExporter(cfg.Observability.TraceExporter, os.Stderr)
	if err != nil {
		zapLog.Fatal("trace exporter setup failed", zap.Error(err))
	}
	obs := observability.New(cfg.App.Name, observability.WithSpanExporter(spanExporter))
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres open failed", zap.Error(err))
	}
	defer pg.Close()
	if err := camunda.Retry(ctx, &camunda.RetryConfig{MaxRetries: 15, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second},
		log, "postgres connection", pg.Ping); err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}

	pgStore := store.NewPostgresRecordStore(pg.DB, log)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("postgres schema setup failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	checks := map[string]readinessCheck{
		"zeebe":    zeebe.HealthCheck,
		"postgres": pg.Ping,
	}

	// --- Redis (optional read-through layer) ---
	var records analysis.RecordStore = pgStore
	if cfg.Analysis.RecordCacheTTL > 0 {
		rdb := database.NewRedis(cfg.Database.Redis)
		defer rdb.Close()
		if err := camunda.Retry(ctx, camunda.DefaultRetryConfig, log, "redis connection", rdb.Ping); err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		ttl := time.Duration(cfg.Analysis.RecordCacheTTL) * time.Second
		records = store.NewCachedRecordStore(pgStore, rdb.Client, ttl, log)
		checks["redis"] = rdb.Ping
		zapLog.Info("Redis connected successfully", zap.Duration("ttl", ttl))
	}

	// --- Elasticsearch ---
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch client failed", zap.Error(err))
	}
	if err := camunda.Retry(ctx, &camunda.RetryConfig{MaxRetries: 15, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second},
		log, "elasticsearch connection", es.Ping); err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	analysisIndex := store.NewAnalysisIndex(es.Client, cfg.Search.Index, log)
	if err := analysisIndex.EnsureIndex(ctx); err != nil {
		zapLog.Fatal("elasticsearch index setup failed", zap.Error(err))
	}
	checks["elasticsearch"] = es.Ping
	zapLog.Info("Elasticsearch connected successfully")

	// --- Economic snapshot ---
	provider, stopEconomic := newEconomicProvider(ctx, cfg.Economic, log)
	defer stopEconomic()

	// --- Analysis ---
	engine, err := analysis.NewEngine(scoring.DefaultModel(), log)
	if err != nil {
		zapLog.Fatal("scoring model rejected", zap.Error(err))
	}
	service := analysis.NewService(engine, provider, config.GetDuration(cfg.Analysis.EconomicTimeout), log)
	cache := analysis.NewCache(service, records, analysis.CacheConfig{
		StaleAfter:     time.Duration(cfg.Analysis.StaleAfterDays) * 24 * time.Hour,
		PersistTimeout: config.GetDuration(cfg.Analysis.PersistTimeout),
	}, log)

	// --- Workers ---
	var workers []worker.JobWorker
	register := func(taskType string, handler worker.JobHandler) {
		if w := camunda.Open(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log); w != nil {
			workers = append(workers, w)
		}
	}

	computeCfg := cca.LoadConfig()
	computeCfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, cca.TaskType).Timeout)
	register(cca.TaskType, cca.NewHandler(computeCfg, records, cache, obs, log).Handle)

	indexCfg := ica.LoadConfig()
	indexCfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, ica.TaskType).Timeout)
	register(ica.TaskType, ica.NewHandler(indexCfg, records, analysisIndex, obs, log).Handle)

	if config.IsWorkerEnabled(cfg, sra.TaskType) {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Alerts.AWSRegion)
		if err != nil {
			zapLog.Fatal("load AWS config failed", zap.Error(err))
		}
		emailSender, smsSender := aws.NewSenders(awsCfg, cfg.Alerts.FromEmail, cfg.Alerts.SNSTopicARN)
		alertCfg := &sra.Config{
			EmailEnabled: cfg.Alerts.EmailEnabled,
			SMSEnabled:   cfg.Alerts.SMSEnabled,
			MinRiskLevel: cfg.Alerts.MinRiskLevel,
			Timeout:      config.GetDuration(config.GetWorkerConfig(cfg, sra.TaskType).Timeout),
		}
		register(sra.TaskType, sra.NewHandler(alertCfg, emailSender, smsSender, obs, log).Handle)
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           newRouter(checks),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// newEconomicProvider serves the configured indicators, refreshed from the central bank when a
// key rate endpoint is configured.
func newEconomicProvider(ctx context.Context, cfg config.EconomicConfig, log logger.Logger) (economic.Provider, func()) {
	indicators := economic.Indicators{
		GDPGrowth:         cfg.GDPGrowth,
		Inflation:         cfg.Inflation,
		PolicyRate:        cfg.PolicyRate,
		Unemployment:      cfg.Unemployment,
		MarketSentiment:   cfg.MarketSentiment,
		SectorPerformance: cfg.SectorPerformance,
	}
	if cfg.KeyRateURL == "" {
		return economic.NewStaticProvider(indicators.Snapshot()), func() {}
	}

	source := economic.NewKeyRateClient(cfg.KeyRateURL, config.GetDuration(cfg.KeyRateTimeout), log)
	provider := economic.NewRefreshingProvider(indicators, source, config.GetDuration(cfg.KeyRateTimeout), log)
	if err := provider.Start(ctx, cfg.RefreshSchedule); err != nil {
		log.Error("economic refresh not scheduled, serving configured indicators", map[string]interface{}{
			"error": err,
		})
		return economic.NewStaticProvider(indicators.Snapshot()), func() {}
	}
	return provider, provider.Stop
}
