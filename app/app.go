package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"github.com/talentwire/points-service/config/database"
	"github.com/talentwire/points-service/config/kafka"
	"github.com/talentwire/points-service/config/redis"
	"github.com/talentwire/points-service/ledger"
	"github.com/talentwire/points-service/models"
	"github.com/talentwire/points-service/processors"
	"github.com/talentwire/points-service/server"
	"github.com/talentwire/points-service/utils"
)

const (
	envEnv                             = "ENV"
	envDatabaseURL                     = "DATABASE_URL"
	envPointsActionCosts               = "POINTS_ACTION_COSTS"
	envPointsDatabaseMaxConnections    = "POINTS_DATABASE_MAX_CONNECTIONS"
	envPointsHTTPAddress               = "POINTS_HTTP_ADDRESS"
	envPointsScheduleSecret            = "POINTS_SCHEDULE_SECRET"
	envPointsBalanceCacheTTLSeconds    = "POINTS_BALANCE_CACHE_TTL_SECONDS"
	envPointsKafkaBootstrapServers     = "POINTS_KAFKA_BOOTSTRAP_SERVERS"
	envPointsKafkaConsumerGroup        = "POINTS_KAFKA_CONSUMER_GROUP"
	envPointsKafkaGrantCommandsTopic   = "POINTS_KAFKA_GRANT_COMMANDS_TOPIC"
	envPointsKafkaGrantDeadLetterTopic = "POINTS_KAFKA_GRANT_DEAD_LETTER_TOPIC"
	envPointsKafkaLedgerEventsTopic    = "POINTS_KAFKA_LEDGER_EVENTS_TOPIC"
	envPointsKafkaPassword             = "POINTS_KAFKA_PASSWORD"
	envPointsKafkaScramAlgorithm       = "POINTS_KAFKA_SCRAM_ALGORITHM"
	envPointsKafkaTLS                  = "POINTS_KAFKA_TLS"
	envPointsKafkaUsername             = "POINTS_KAFKA_USERNAME"
	envPointsRedisDB                   = "POINTS_REDIS_DB"
	envPointsRedisPassword             = "POINTS_REDIS_PASSWORD"
	envPointsRedisTLS                  = "POINTS_REDIS_TLS"
	envPointsRedisURL                  = "POINTS_REDIS_URL"
)

type Config struct {
	Logger       *slog.Logger
	UseTelemetry bool
}

func kafkaServerConfig(config *Config) (kafka.ServerConfig, bool) {
	serverBrokers := utils.ParseBrokersEnv(os.Getenv(envPointsKafkaBootstrapServers))
	if len(serverBrokers) == 0 {
		return kafka.ServerConfig{}, false
	}

	return kafka.ServerConfig{
		ScramAlgorithm: os.Getenv(envPointsKafkaScramAlgorithm),
		TLS:            utils.GetEnvAsBool(envPointsKafkaTLS, false),
		Servers:        serverBrokers,
		UseTelemetry:   config.UseTelemetry,
		UserName:       os.Getenv(envPointsKafkaUsername),
		Password:       os.Getenv(envPointsKafkaPassword),
	}, true
}

func initProducer(ctx context.Context, kafkaConfig kafka.ServerConfig, topicEnv string) (*kafka.Producer, error) {
	topic := os.Getenv(topicEnv)
	if topic == "" {
		return nil, nil
	}

	producer, err := kafka.NewProducer(
		kafkaConfig,
		&kafka.ProducerConfig{
			Topic: topic,
		})
	if err != nil {
		return nil, err
	}

	err = producer.Ping(ctx)
	if err != nil {
		return nil, err
	}

	return producer, nil
}

func initBalanceCache(ctx context.Context) (*models.BalanceCache, error) {
	address := os.Getenv(envPointsRedisURL)
	if address == "" {
		return nil, nil
	}

	redisDb, err := utils.GetEnvAsInt(envPointsRedisDB, 0)
	if err != nil {
		return nil, err
	}

	ttlSeconds, err := utils.GetEnvAsInt(envPointsBalanceCacheTTLSeconds, 30)
	if err != nil {
		return nil, err
	}

	redisConfig := redis.RedisConfig{
		Address:  address,
		Password: os.Getenv(envPointsRedisPassword),
		DB:       redisDb,
		UseTLS:   utils.GetEnvAsBool(envPointsRedisTLS, false),
	}

	db, err := redis.NewRedisDB(ctx, redisConfig)
	if err != nil {
		return nil, err
	}

	cacheStore := models.NewCacheStore(ctx, db)
	return models.NewBalanceCache(cacheStore, time.Duration(ttlSeconds)*time.Second), nil
}

// Start wires the service and blocks until the context is canceled. The
// balance cache, the ledger event stream and the grant command consumer are
// all optional: each is enabled by its environment variables.
func Start(ctx context.Context, config *Config) {
	costsResult := models.NewCostTableFromEnv(os.Getenv(envPointsActionCosts))
	if costsResult.Failure() {
		utils.LogAndPanic(config.Logger, costsResult.Error(), "Error parsing action cost overrides")
	}

	maxConns, err := utils.GetEnvAsInt(envPointsDatabaseMaxConnections, 200)
	if err != nil {
		utils.LogAndPanic(config.Logger, err, "Error converting max connections into integer")
	}

	dbConfig := database.DBConfig{
		Url:      os.Getenv(envDatabaseURL),
		MaxConns: int32(maxConns),
	}

	db, err := database.NewConnection(dbConfig)
	if err != nil {
		utils.LogAndPanic(config.Logger, err, "Error connecting to the database")
	}
	defer db.Close()
	store := models.NewStore(db)

	balanceCache, err := initBalanceCache(ctx)
	if err != nil {
		utils.LogAndPanic(config.Logger, err, "Error connecting to the balance cache")
	}
	if balanceCache != nil {
		defer balanceCache.CacheStore.Close()
	}

	var events *ledger.TransactionProducerService
	kafkaConfig, kafkaEnabled := kafkaServerConfig(config)
	if kafkaEnabled {
		ledgerEventsProducer, err := initProducer(ctx, kafkaConfig, envPointsKafkaLedgerEventsTopic)
		if err != nil {
			utils.LogAndPanic(config.Logger, err, "failed to initialize ledger events producer")
		}
		if ledgerEventsProducer != nil {
			events = ledger.NewTransactionProducerService(ledgerEventsProducer, config.Logger)
		}
	}

	pointsLedger := ledger.New(store, costsResult.Value(), balanceCache, events, config.Logger)

	srv := server.NewServer(pointsLedger, config.Logger, server.Config{
		ScheduleSecret: os.Getenv(envPointsScheduleSecret),
	})

	address := os.Getenv(envPointsHTTPAddress)
	if address == "" {
		address = ":8080"
	}

	httpServer := &http.Server{
		Addr:    address,
		Handler: srv.Engine(),
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		config.Logger.Info("Starting HTTP server", slog.String("address", address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if kafkaEnabled && os.Getenv(envPointsKafkaGrantCommandsTopic) != "" {
		deadLetterProducer, err := initProducer(ctx, kafkaConfig, envPointsKafkaGrantDeadLetterTopic)
		if err != nil {
			utils.LogAndPanic(config.Logger, err, "failed to initialize grant dead letter queue producer")
		}

		var deadLetter kafka.MessageProducer
		if deadLetterProducer != nil {
			deadLetter = deadLetterProducer
		}
		grantsProcessor := processors.NewGrantsProcessor(config.Logger, pointsLedger, deadLetter)

		cg, err := kafka.NewConsumerGroup(
			kafkaConfig,
			&kafka.ConsumerGroupConfig{
				Topic:         os.Getenv(envPointsKafkaGrantCommandsTopic),
				ConsumerGroup: os.Getenv(envPointsKafkaConsumerGroup),
				ProcessRecords: func(ctx context.Context, records []*kgo.Record) []*kgo.Record {
					return grantsProcessor.ProcessCommands(ctx, records)
				},
			})
		if err != nil {
			utils.LogAndPanic(config.Logger, err, "Error starting the grant command consumer")
		}

		group.Go(func() error {
			config.Logger.Info("Starting grant command consumer")
			err := cg.Start(groupCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := group.Wait(); err != nil {
		config.Logger.Error("Service stopped with error", slog.String("error", err.Error()))
		return
	}
	config.Logger.Info("Service stopped")
}
