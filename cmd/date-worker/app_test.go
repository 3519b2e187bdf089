package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/DateBox/config"
	"github.com/BearBump/DateBox/internal/broker/messages"
	"github.com/BearBump/DateBox/internal/models"
	"github.com/BearBump/DateBox/internal/services/rollup"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct{}

func (r *fakeRepo) InsertCalculation(ctx context.Context, c *models.Calculation) (uint64, error) {
	return 1, nil
}
func (r *fakeRepo) AggregateUsage(ctx context.Context, day time.Time) error { return nil }

type fakeConsumer struct{}

func (c fakeConsumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	<-ctx.Done()
	return ctx.Err()
}
func (c fakeConsumer) Close() error { return nil }

// queueConsumer ведёт себя как настоящий Consume: отдаёт сообщения по
// порядку, на ошибке хендлера возвращается не продвигаясь (нет коммита),
// после drain блокируется до отмены контекста.
type queueConsumer struct {
	mu     sync.Mutex
	events [][]byte
	pos    int
}

func (c *queueConsumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	for {
		c.mu.Lock()
		if c.pos >= len(c.events) {
			c.mu.Unlock()
			<-ctx.Done()
			return ctx.Err()
		}
		ev := c.events[c.pos]
		c.mu.Unlock()

		if err := handler(nil, ev); err != nil {
			return err
		}
		c.mu.Lock()
		c.pos++
		c.mu.Unlock()
	}
}
func (c *queueConsumer) Close() error { return nil }

type flakyRepo struct {
	mu      sync.Mutex
	failed  bool
	inserts int
}

func (r *flakyRepo) InsertCalculation(ctx context.Context, c *models.Calculation) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.failed {
		r.failed = true
		return 0, errors.New("pg down")
	}
	r.inserts++
	return uint64(r.inserts), nil
}
func (r *flakyRepo) AggregateUsage(ctx context.Context, day time.Time) error { return nil }

func (r *flakyRepo) insertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inserts
}

func TestDefaultWorkerFactories_NonNil(t *testing.T) {
	f := defaultWorkerFactories()
	cfg := &config.Config{
		Kafka: config.KafkaConfig{Host: "localhost", Port: 9092},
	}
	require.NotNil(t, f.newConsumer(cfg, "t", "g"))
}

func TestRunDateWorker_ContextCanceled(t *testing.T) {
	calledClose := false
	var gotWorker *rollup.Worker

	f := workerFactories{
		newStorage: func(cfg *config.Config) (rollup.Repository, func(), error) {
			return &fakeRepo{}, func() { calledClose = true }, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) eventConsumer {
			return fakeConsumer{}
		},
	}

	cfg := &config.Config{
		Kafka: config.KafkaConfig{CalculationPerformedTopicName: "t"},
		DateBox: config.DateBoxConfig{
			KafkaConsumerGroup:             "g",
			WorkerAggregateIntervalSeconds: 1,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunDateWorker(ctx, cfg, f, func(w *rollup.Worker) { gotWorker = w })
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, calledClose)
	require.NotNil(t, gotWorker)
}

func TestRunDateWorker_ConsumerRestartsAfterTransientError(t *testing.T) {
	msg := messages.CalculationPerformed{
		UserID:     "u1",
		Weight:     4000,
		Distance:   700,
		PickupDate: time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
	}
	b, _ := json.Marshal(msg)

	repo := &flakyRepo{}
	cons := &queueConsumer{events: [][]byte{b, b}}

	f := workerFactories{
		newStorage: func(cfg *config.Config) (rollup.Repository, func(), error) {
			return repo, nil, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) eventConsumer {
			return cons
		},
	}

	cfg := &config.Config{
		Kafka:   config.KafkaConfig{CalculationPerformedTopicName: "t"},
		DateBox: config.DateBoxConfig{KafkaConsumerGroup: "g", WorkerAggregateIntervalSeconds: 3600},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunDateWorker(ctx, cfg, f, nil) }()

	// Первая вставка падает, сообщение не коммитится; цикл перезапускается
	// и дочитывает оба события.
	require.Eventually(t, func() bool {
		return repo.insertCount() == 2
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestRunWorkerHTTPServer_StatsAndTrigger(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	w := rollup.New(&fakeRepo{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr:    "127.0.0.1:0",
			swaggerPath: sw,
			onListen:    func(addr string) { addrCh <- addr },
			worker:      w,
			cfg:         &config.Config{},
		})
	}()

	addr := <-addrCh

	resp, err := http.Get("http://" + addr + "/stats")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	require.Contains(t, string(body), "totalConsumed")

	resp, err = http.Post("http://"+addr+"/trigger", "application/json", nil)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Contains(t, string(body), "triggered")

	cancel()
	select {
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting worker http server to stop")
	case <-errCh:
	}
}
