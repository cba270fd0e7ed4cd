package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todos/internal/config"
	"todos/internal/logger"
	"todos/internal/manager"
	"todos/internal/server"
	"todos/internal/storage"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg := config.New()
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	logger.Info(ctx, "Запуск API сервера...", "store", storage.Kind(cfg.StoreDSN))

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := storage.Open(openCtx, cfg.StoreDSN)
	cancel()
	if err != nil {
		logger.Error(ctx, err, "Ошибка инициализации хранилища")
		return err
	}
	defer store.Close()

	tm := manager.NewTaskManager(store)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.NewRouter(tm),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Сервер слушает", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error(ctx, err, "Сервер упал")
			return err
		}
		return nil
	case <-stop:
		logger.Info(ctx, "Получен сигнал остановки...")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, err, "Ошибка остановки сервера")
		return err
	}

	logger.Info(ctx, "Сервер остановлен")
	return nil
}
