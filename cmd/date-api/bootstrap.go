package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/DateBox/config"
	calculationsapi "github.com/BearBump/DateBox/internal/api/calculations_api"
	"github.com/BearBump/DateBox/internal/broker/kafka"
	"github.com/BearBump/DateBox/internal/cache/rediscache"
	"github.com/BearBump/DateBox/internal/integrations/profiles"
	"github.com/BearBump/DateBox/internal/integrations/profiles/fake"
	"github.com/BearBump/DateBox/internal/integrations/profiles/httpapi"
	"github.com/BearBump/DateBox/internal/services/calculations"
	"github.com/BearBump/DateBox/internal/services/copytext"
	"github.com/BearBump/DateBox/internal/storage/pgrules"
)

type dateAPIApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    dateAPIOpts
	api     *calculationsapi.API
	closeDB func()
}

func mustBootstrapDateAPI() *dateAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.DateBox.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.CalculationPerformedTopicName
	if topic == "" {
		topic = "calculation.performed"
	}
	snapshotTTL := time.Duration(cfg.DateBox.SnapshotTTLSeconds) * time.Second
	if snapshotTTL <= 0 {
		snapshotTTL = 10 * time.Minute
	}
	rlPerMin := int64(cfg.DateBox.RateLimitPerUserPerMinute)
	if rlPerMin <= 0 {
		rlPerMin = 60
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)
	rl := rediscache.NewRateLimiter(redisAddr)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)

	// Профиль-сервис опционален: без base_url работаем на локальном fake.
	var profilesClient profiles.Client
	if cfg.DateBox.ProfileServiceBaseURL != "" {
		profilesClient = httpapi.New(cfg.DateBox.ProfileServiceBaseURL, cfg.DateBox.ProfileServiceAPIKey)
	} else {
		profilesClient = fake.New()
	}

	calcSvc := calculations.New(st, rc, producer, topic, snapshotTTL).
		WithRateLimiter(rl, rlPerMin)
	copySvc := copytext.New(st, profilesClient)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &dateAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: dateAPIOpts{
			httpAddr:    httpAddr,
			swaggerPath: swaggerPath,
		},
		api:     calculationsapi.New(calcSvc, copySvc),
		closeDB: st.Close,
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgrules.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgrules.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *dateAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *dateAPIApp) Run() error {
	return runDateAPI(a.ctx, a.opts, a.api)
}
