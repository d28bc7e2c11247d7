package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"DispersionSignal/internal/domain/repository"
	"DispersionSignal/internal/handler/api"
	mid "DispersionSignal/internal/middleware"
	internalrepo "DispersionSignal/internal/repository"
	"DispersionSignal/internal/service/binance"
	"DispersionSignal/internal/service/ratelimit"
	"DispersionSignal/internal/services/collectors"
	"DispersionSignal/internal/services/dispersion"
	"DispersionSignal/internal/usecase"
	pkgcache "DispersionSignal/pkg/cache"
	pkgch "DispersionSignal/pkg/clickhouse"
	"DispersionSignal/pkg/config"
	pkgkafka "DispersionSignal/pkg/kafka"
	applogger "DispersionSignal/pkg/logger"
	"DispersionSignal/pkg/metrics"
	"DispersionSignal/pkg/queue"
	"DispersionSignal/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and applies the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideObservationStorage creates ClickHouse storage for raw observations.
func ProvideObservationStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".observations")
}

// ProvideObservationPublisher creates the Kafka publisher for raw observations.
func ProvideObservationPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSignalPublisher creates the Kafka publisher for computed signals.
// Returns nil when no signal topic is configured.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	if cfg.Kafka.SignalTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideObservationsHandler registers handler for the observations topic.
func ProvideObservationsHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaObservationsHandler {
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideMarketStream creates the Binance WebSocket stream.
func ProvideMarketStream(cfg *config.Config, lgr *applogger.Logger) repository.MarketStream {
	return binance.New(
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		lgr,
	)
}

// ProvideObservationProcessor creates the observation processor use case.
func ProvideObservationProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.ObservationProcessor {
	return usecase.NewObservationProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideObservationCollector creates the observation collector use case.
func ProvideObservationCollector(
	stream repository.MarketStream,
	processor *usecase.ObservationProcessor,
	metrics repository.Metrics,
) *usecase.ObservationCollector {
	// Middleware pipeline between the stream and the backend
	pipe := mid.NewStreamPipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewObservationCollector(stream, processor, metrics, pipe)
}

// ProvideCalculator creates the dispersion calculator.
func ProvideCalculator(lgr *applogger.Logger) *dispersion.Calculator {
	return dispersion.NewCalculator(lgr)
}

// ProvideSourceRegistry assembles the enabled data sources.
func ProvideSourceRegistry(cfg *config.Config, lgr *applogger.Logger) *collectors.Registry {
	limiter := ratelimit.New()

	opts := make([]collectors.RegistryOption, 0, 5)
	if cfg.Sources.CoinGecko.Enabled {
		cg := collectors.NewCoinGecko(cfg, limiter, lgr)
		opts = append(opts, collectors.WithQuoteSource(cg), collectors.WithGlobalSource(cg))
	}
	if cfg.Sources.Binance.Enabled {
		opts = append(opts, collectors.WithQuoteSource(collectors.NewBinance(cfg, limiter, lgr)))
	}
	if cfg.Sources.CoinPaprika.Enabled {
		opts = append(opts, collectors.WithQuoteSource(collectors.NewCoinPaprika(cfg, limiter, lgr)))
	}
	if cfg.Sources.CoinCap.Enabled {
		opts = append(opts, collectors.WithQuoteSource(collectors.NewCoinCap(cfg, limiter, lgr)))
	}
	if cfg.Sources.Reddit.Enabled {
		opts = append(opts, collectors.WithSentimentSource(collectors.NewReddit(cfg, limiter, lgr)))
	}
	return collectors.NewRegistry(lgr, opts...)
}

// ProvideSignalStore creates the ClickHouse signal store.
func ProvideSignalStore(chClient *pkgch.Client, lgr *applogger.Logger) repository.SignalStore {
	store := internalrepo.NewCHSignalStore(chClient)
	store.SetLogger(lgr)
	return store
}

// ProvideRedisCache creates the Redis cache when enabled, nil otherwise.
func ProvideRedisCache(cfg *config.Config, lgr *applogger.Logger) *pkgcache.RedisCache {
	if !cfg.Signals.Redis.Enabled {
		return nil
	}
	host, port := splitAddr(cfg.Signals.Redis.Addr)
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Signals.Redis.Password),
		pkgcache.WithRedisDB(cfg.Signals.Redis.DB),
	)
	if err != nil {
		lgr.Warn("redis cache unavailable, falling back to memory", applogger.Error(err))
		return nil
	}
	return c
}

// ProvideCacheService builds the query cache: layered memory+Redis when
// Redis is available, in-process memory only otherwise.
func ProvideCacheService(rc *pkgcache.RedisCache) pkgcache.Service {
	if rc != nil {
		return pkgcache.NewLayeredCache(rc)
	}
	return pkgcache.NewMemoryCache()
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideQueryUsecase creates the read-path use case.
func ProvideQueryUsecase(store repository.SignalStore, c pkgcache.Service, lgr *applogger.Logger, cfg *config.Config) *usecase.QueryUsecase {
	return usecase.NewQueryUsecase(store, c, lgr, cfg.Signals.CacheTTL)
}

// ProvideCalculateUsecase creates the calculation round use case.
func ProvideCalculateUsecase(
	registry *collectors.Registry,
	calc *dispersion.Calculator,
	store repository.SignalStore,
	sigPub repository.SignalPublisher,
	m repository.Metrics,
	lgr *applogger.Logger,
	cfg *config.Config,
) *usecase.CalculateUsecase {
	return usecase.NewCalculateUsecase(registry, calc, store, sigPub, m, lgr, cfg.Signals.DominanceWindow)
}

// ProvideSummarizeUsecase creates the daily summary use case.
func ProvideSummarizeUsecase(calc *dispersion.Calculator, store repository.SignalStore, lgr *applogger.Logger, cfg *config.Config) *usecase.SummarizeUsecase {
	return usecase.NewSummarizeUsecase(calc, store, lgr, cfg.Signals.TopCoins)
}

// ProvideScheduler creates the Redis-backed job scheduler. Returns nil
// when the scheduler or Redis is disabled.
func ProvideScheduler(
	cfg *config.Config,
	lgr *applogger.Logger,
	rc *pkgcache.RedisCache,
	calcUC *usecase.CalculateUsecase,
	sumUC *usecase.SummarizeUsecase,
) *usecase.Scheduler {
	if !cfg.Scheduler.Enabled || rc == nil {
		return nil
	}

	q := queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    cfg.Scheduler.Workers,
		RetryLimit: cfg.Scheduler.RetryLimit,
		RetryDelay: cfg.Scheduler.RetryDelay,
	}, rc.Client(), queue.ModeProducerConsumer)
	q.RegisterJobs([]queue.Job{
		usecase.NewCalculateJob(calcUC, cfg.Sources.Coins, lgr),
		usecase.NewSummarizeJob(sumUC, lgr),
	})

	return usecase.NewScheduler(q, lgr, cfg.Scheduler.CalculateInterval, cfg.Scheduler.SummarizeInterval)
}

// ProvideHTTPHandler creates the Echo API handler.
func ProvideHTTPHandler(lgr *applogger.Logger, query *usecase.QueryUsecase) *api.SignalsEchoHandler {
	return api.NewSignalsEchoHandler(lgr, query)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaObservationsHandler,
	chClient *pkgch.Client,
	scheduler *usecase.Scheduler,
	handler *api.SignalsEchoHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient, scheduler)
	app.SetHTTPHandler(handler)
	if collector != nil {
		app.ObsProc = collector.Processor()
	}
	return app
}
