package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aranyasourav/triggerhub/internal/delivery"
	"github.com/aranyasourav/triggerhub/internal/registry"
	"github.com/aranyasourav/triggerhub/internal/storage"
	"github.com/aranyasourav/triggerhub/internal/supervisor"
	"github.com/aranyasourav/triggerhub/pkg/clock"
	"github.com/aranyasourav/triggerhub/pkg/config"
	platformEvents "github.com/aranyasourav/triggerhub/platform/events"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()

	var zapLogger *zap.Logger
	var err error
	if cfg.Environment == "production" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting engine service",
		zap.String("environment", cfg.Environment),
		zap.String("database_url", maskPassword(cfg.DatabaseURL)))

	db, err := sql.Open("mysql", cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		zapLogger.Fatal("failed to ping database", zap.Error(err))
	}
	zapLogger.Info("database connection established")

	store := storage.NewMySQLClient(db)
	reg := registry.NewMySQLProvider(db)

	var kafkaPublisher *platformEvents.Publisher
	if cfg.KafkaBrokers != "" {
		kafkaPublisher = platformEvents.NewPublisher(parseKafkaBrokers(cfg.KafkaBrokers), "webhook-invocations", zapLogger)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				zapLogger.Error("failed to close kafka publisher", zap.Error(err))
			}
		}()
		zapLogger.Info("kafka invocation sink enabled", zap.String("topic", "webhook-invocations"))
	} else {
		zapLogger.Info("kafka invocation sink disabled: no brokers configured")
	}

	var sink delivery.InvocationNotifier
	if kafkaPublisher != nil {
		sink = delivery.NewSink(kafkaPublisher)
	} else {
		sink = delivery.NewSink(nil)
	}

	sup := supervisor.New(store, reg, clock.RealClock{}, sink, zapLogger, supervisor.Config{
		HTTPPoolSize:  int(cfg.HTTPPoolSize),
		FetchInterval: cfg.FetchInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		zapLogger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	sup.Run(ctx)
	zapLogger.Info("engine service shut down successfully")
}

func parseKafkaBrokers(brokers string) []string {
	list := strings.Split(brokers, ",")
	for i, b := range list {
		list[i] = strings.TrimSpace(b)
	}
	return list
}

func maskPassword(dsn string) string {
	if idx := strings.Index(dsn, "@"); idx > 0 {
		if colonIdx := strings.Index(dsn, ":"); colonIdx > 0 && colonIdx < idx {
			return dsn[:colonIdx+1] + "****" + dsn[idx:]
		}
	}
	return dsn
}
