package main

import (
	"context"
	"flag"
	"os"
	"time"

	"todos/internal/config"
	"todos/internal/logger"
	"todos/internal/storage"
)

func main() {
	cfg := config.New()
	dsn := flag.String("dsn", cfg.StoreDSN, "Store DSN (sqlite path, mysql://..., mongodb://...)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info(ctx, "🔄 Подготовка хранилища...", "store", storage.Kind(*dsn))

	// Open сам создает таблицы (SQL) или индексы (MongoDB)
	store, err := storage.Open(ctx, *dsn)
	if err != nil {
		logger.Error(ctx, err, "❌ Ошибка открытия хранилища")
		os.Exit(1)
	}
	defer store.Close()

	if m, ok := store.(interface{ Migrate(context.Context) error }); ok {
		if err := m.Migrate(ctx); err != nil {
			logger.Error(ctx, err, "❌ Ошибка миграции")
			os.Exit(1)
		}
	}

	logger.Info(ctx, "🎉 Миграция завершена успешно!")
}
