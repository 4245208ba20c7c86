package di

import (
	"context"
	"fmt"
	"time"

	"RateCast/internal/domain/repository"
	mid "RateCast/internal/middleware"
	internalrepo "RateCast/internal/repository"
	"RateCast/internal/service/ratefeed"
	"RateCast/internal/services/bvar"
	"RateCast/internal/services/calendarapi"
	"RateCast/internal/services/distribution"
	"RateCast/internal/services/lp"
	"RateCast/internal/usecase"
	pkgcache "RateCast/pkg/cache"
	pkgch "RateCast/pkg/clickhouse"
	"RateCast/pkg/config"
	pkgkafka "RateCast/pkg/kafka"
	applogger "RateCast/pkg/logger"
	"RateCast/pkg/metrics"
	"RateCast/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(pkgch.Config{
		Host:         cfg.ClickHouse.Host,
		Port:         cfg.ClickHouse.Port,
		Database:     cfg.ClickHouse.Database,
		User:         cfg.ClickHouse.User,
		Password:     cfg.ClickHouse.Password,
		UseHTTP:      cfg.ClickHouse.UseHTTP,
		AsyncInsert:  cfg.ClickHouse.AsyncInsert,
		WaitForAsync: cfg.ClickHouse.WaitForAsync,
		DialTimeout:  cfg.ClickHouse.DialTimeout,
		ReadTimeout:  cfg.ClickHouse.ReadTimeout,
		MaxExecTime:  cfg.ClickHouse.MaxExecutionTime,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if db == "" {
		db = "ratecast"
	}
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".rate_events (effective_date DateTime, series String, move_bps Float64, rate_pct Float64, source String, event_id String) ENGINE=ReplacingMergeTree ORDER BY (series, effective_date, event_id)",
		"CREATE TABLE IF NOT EXISTS " + db + ".meeting_calendar (meeting_date DateTime, label String) ENGINE=ReplacingMergeTree ORDER BY meeting_date",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Compression:  cfg.Kafka.Compression,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		BatchSize:    cfg.Kafka.Producer.BatchSize,
		BatchBytes:   cfg.Kafka.Producer.BatchBytes,
		BatchTimeout: cfg.Kafka.Producer.Linger,
		WriteTimeout: cfg.Kafka.Producer.WriteTimeout,
		ReadTimeout:  cfg.Kafka.Producer.ReadTimeout,
		MaxAttempts:  cfg.Kafka.Producer.MaxAttempts,
		Async:        cfg.Kafka.Producer.Async,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideEventStore creates the ClickHouse event store.
func ProvideEventStore(chClient *pkgch.Client, cfg *config.Config) repository.EventStore {
	table := cfg.ClickHouse.EventsTable
	if table == "" {
		table = cfg.ClickHouse.Database + ".rate_events"
	}
	return internalrepo.NewClickHouseEventStore(chClient.DB(), table)
}

// ProvideEventPublisher creates the Kafka publisher.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideCalendarSource prefers the external calendar service and falls back
// to the ClickHouse calendar table.
func ProvideCalendarSource(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.CalendarSource {
	if cfg.Calendar.ServiceURL != "" {
		return calendarapi.NewHTTPCalendarSource(cfg)
	}
	table := cfg.ClickHouse.CalendarTable
	if table == "" {
		table = cfg.ClickHouse.Database + ".meeting_calendar"
	}
	src := internalrepo.NewCHCalendarSource(chClient, table)
	src.SetLogger(l)
	return src
}

// ProvideArtifactStore creates the filesystem artifact store.
func ProvideArtifactStore(cfg *config.Config) repository.ArtifactStore {
	dir := cfg.Model.ArtifactDir
	if dir == "" {
		dir = "artifacts"
	}
	return internalrepo.NewFileArtifactStore(dir)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:    cfg.Kafka.Brokers,
		GroupID:    cfg.Kafka.Consumer.GroupID,
		Workers:    cfg.Kafka.Consumer.Workers,
		RetryMax:   cfg.Kafka.Consumer.RetryMax,
		BackoffMin: cfg.Kafka.Consumer.BackoffMin,
		BackoffMax: cfg.Kafka.Consumer.BackoffMax,
		DLQTopic:   cfg.Kafka.Consumer.DLQTopic,
		MinBytes:   cfg.Kafka.Consumer.MinBytes,
		MaxBytes:   cfg.Kafka.Consumer.MaxBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaRatesHandler registers the handler for the rates topic.
func ProvideKafkaRatesHandler(store repository.EventStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaRatesHandler {
	return usecase.NewKafkaRatesHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideRateStream creates the policy-rate WebSocket stream.
func ProvideRateStream(cfg *config.Config) repository.RateStream {
	return ratefeed.New(
		cfg.RateFeed.APIKey,
		cfg.RateFeed.WebSocketURL,
		cfg.RateFeed.Series,
		cfg.RateFeed.ReconnectDelay,
		cfg.RateFeed.PingInterval,
	)
}

// ProvideEventProcessor creates the event processor use case.
func ProvideEventProcessor(
	pub repository.Publisher,
	store repository.EventStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.EventProcessor {
	return usecase.NewEventProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideEventCollector creates the event collector use case.
func ProvideEventCollector(
	stream repository.RateStream,
	processor *usecase.EventProcessor,
	metrics repository.Metrics,
) *usecase.EventCollector {
	// Build middleware pipeline between WebSocket and the backend
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithBufferSize(2000),
	)
	return usecase.NewEventCollector(stream, processor, metrics, pipe)
}

// ProvideForecastConfig maps the YAML model section onto engine configs,
// falling back to defaults for unset values.
func ProvideForecastConfig(cfg *config.Config) usecase.ForecastConfig {
	fc := usecase.DefaultForecastConfig()
	m := cfg.Model

	if m.ShockSeries != "" {
		fc.ShockSeries = m.ShockSeries
	}
	if m.ResponseSeries != "" {
		fc.ResponseSeries = m.ResponseSeries
	}
	if m.LookbackYears > 0 {
		fc.LookbackYears = m.LookbackYears
	}

	if m.Prior.Lambda1 > 0 {
		fc.Prior = bvar.PriorSpec{
			Lambda1:        m.Prior.Lambda1,
			Lambda2:        m.Prior.Lambda2,
			Lambda3:        m.Prior.Lambda3,
			Lambda4:        m.Prior.Lambda4,
			InterceptMean:  m.Prior.InterceptMean,
			InterceptSigma: m.Prior.InterceptSigma,
			Lags:           m.Prior.Lags,
		}
	}
	if m.MonteCarlo.Draws > 0 {
		fc.MonteCarlo.Draws = m.MonteCarlo.Draws
	}
	if m.MonteCarlo.ExtendPolicy != "" {
		fc.MonteCarlo.ExtendPolicy = m.MonteCarlo.ExtendPolicy
	}
	if m.LP.MaxHorizon > 0 {
		fc.LP = lp.Config{
			MaxHorizon: m.LP.MaxHorizon,
			MaxLags:    m.LP.MaxLags,
			Alpha:      m.LP.Alpha,
			Method:     m.LP.Method,
			L1Ratio:    m.LP.L1Ratio,
		}
	}
	if m.Bootstrap.Replications > 0 {
		fc.Bootstrap.Replications = m.Bootstrap.Replications
	}
	if m.Bootstrap.Seed != 0 {
		fc.Bootstrap.Seed = m.Bootstrap.Seed
	}
	if m.Distribution.BinWidthBps > 0 {
		fc.Distribution = distribution.Config{
			BinWidthBps:    m.Distribution.BinWidthBps,
			MinProbability: m.Distribution.MinProbability,
			StdOverridePct: m.Distribution.StdOverridePct,
		}
	}
	if m.CalendarMap.DecayFast > 0 {
		fc.Calendar = distribution.CalendarConfig{
			DecayFast:   m.CalendarMap.DecayFast,
			DecayMid:    m.CalendarMap.DecayMid,
			DecaySlow:   m.CalendarMap.DecaySlow,
			FastHorizon: m.CalendarMap.FastHorizon,
			MidHorizon:  m.CalendarMap.MidHorizon,
			MaxMeetings: m.CalendarMap.MaxMeetings,
		}
	}
	return fc
}

// ProvideForecastOrchestrator creates the forecasting orchestrator.
func ProvideForecastOrchestrator(
	store repository.EventStore,
	calendar repository.CalendarSource,
	artifacts repository.ArtifactStore,
	metrics repository.Metrics,
	l *applogger.Logger,
	fc usecase.ForecastConfig,
) *usecase.ForecastOrchestrator {
	return usecase.NewForecastOrchestrator(store, calendar, artifacts, metrics, l, fc)
}

// ProvideHistoryCache picks a layered memory+Redis cache when Redis is
// enabled, plain in-process memory otherwise.
func ProvideHistoryCache(cfg *config.Config, l *applogger.Logger) pkgcache.Store {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemory()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	rc := pkgcache.NewRedis(rdb, "ratecast")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis cache unavailable, using in-process cache", applogger.Error(err))
		return pkgcache.NewMemory()
	}
	return pkgcache.NewLayered(rc)
}

// ProvideHistoryUseCase creates the history use case.
func ProvideHistoryUseCase(store repository.EventStore, c pkgcache.Store) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(store, c)
}

// ProvideDiagnosticsUseCase creates the diagnostics use case.
func ProvideDiagnosticsUseCase(orch *usecase.ForecastOrchestrator, store repository.EventStore, cfg *config.Config) *usecase.DiagnosticsUseCase {
	series := cfg.Model.ShockSeries
	return usecase.NewDiagnosticsUseCase(orch, store, series)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.EventCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaRatesHandler,
	chClient *pkgch.Client,
	orch *usecase.ForecastOrchestrator,
	diag *usecase.DiagnosticsUseCase,
	hist *usecase.HistoryUseCase,
	l *applogger.Logger,
) *server.App {
	app := server.New(cfg, collector, consumer, kh, chClient, orch, diag, hist, l)
	if collector != nil {
		app.EventProc = collector.Processor()
	}
	return app
}
