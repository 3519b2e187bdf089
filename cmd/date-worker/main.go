package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/DateBox/config"
	"github.com/BearBump/DateBox/internal/services/rollup"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	swaggerPath := os.Getenv("swaggerPath")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	onWorker := func(w *rollup.Worker) {
		if swaggerPath == "" {
			return
		}
		go func() {
			_ = runWorkerHTTPServer(ctx, workerHTTPOpts{
				httpAddr:    cfg.DateBox.WorkerHTTPAddr,
				swaggerPath: swaggerPath,
				worker:      w,
				cfg:         cfg,
			})
		}()
	}

	if err := RunDateWorker(ctx, cfg, defaultWorkerFactories(), onWorker); err != nil && err != context.Canceled {
		panic(err)
	}
}
