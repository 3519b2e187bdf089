package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/DateBox/config"
	"github.com/BearBump/DateBox/internal/broker/kafka"
	"github.com/BearBump/DateBox/internal/services/rollup"
	"github.com/BearBump/DateBox/internal/storage/pgrules"
)

type eventConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
	Close() error
}

type workerFactories struct {
	newStorage  func(cfg *config.Config) (repo rollup.Repository, closeFn func(), err error)
	newConsumer func(cfg *config.Config, topic, group string) eventConsumer
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (rollup.Repository, func(), error) {
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			st, err := pgrules.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) eventConsumer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewConsumer(brokers, topic, group)
		},
	}
}

// RunDateWorker consumes calculation events into history and keeps the
// usage rollups fresh. onWorker, когда задан, получает воркер до старта:
// так HTTP-сервер берёт его для /stats и /trigger.
func RunDateWorker(ctx context.Context, cfg *config.Config, f workerFactories, onWorker func(*rollup.Worker)) error {
	topic := cfg.Kafka.CalculationPerformedTopicName
	if topic == "" {
		topic = "calculation.performed"
	}
	group := cfg.DateBox.KafkaConsumerGroup
	if group == "" {
		group = "date-worker"
	}

	interval := time.Duration(cfg.DateBox.WorkerAggregateIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}
	lookbackDays := cfg.DateBox.WorkerLookbackDays
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	concurrency := cfg.DateBox.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	repo, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	consumer := f.newConsumer(cfg, topic, group)
	defer func() { _ = consumer.Close() }()

	w := rollup.New(repo).WithSettings(interval, lookbackDays, concurrency)
	if onWorker != nil {
		onWorker(w)
	}

	go func() {
		slog.Info("kafka consumer started", "topic", topic, "group", group)
		for {
			err := consumer.Consume(ctx, func(key, value []byte) error {
				return w.HandleEvent(ctx, key, value)
			})
			if ctx.Err() != nil {
				return
			}
			// Consume возвращается при первой ошибке хендлера или брокера.
			// Перезапускаем цикл: сообщение не закоммичено и будет перечитано.
			slog.Error("kafka consume", "error", err.Error())
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}()

	return w.Run(ctx)
}
