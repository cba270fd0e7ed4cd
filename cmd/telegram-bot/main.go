package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"todos/internal/client"
	"todos/internal/config"
	"todos/internal/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.New()
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	logger.Info(ctx, "Запуск Telegram-бота...", "api", cfg.APIURL)

	if cfg.TelegramToken == "" {
		logger.Error(ctx, nil, "TELEGRAM_TOKEN не задан")
		os.Exit(1)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error(ctx, err, "Ошибка создания бота")
		os.Exit(1)
	}
	api.Debug = cfg.BotDebug
	logger.Info(ctx, "Авторизован", "bot", api.Self.UserName)

	bot := NewBot(api, client.New(cfg.APIURL, nil))
	defer bot.Close()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := api.GetUpdatesChan(u)
	if err != nil {
		logger.Error(ctx, err, "Ошибка получения updates")
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	logger.Info(ctx, "Бот запущен и слушает сообщения...")

	for {
		select {
		case <-stop:
			logger.Info(ctx, "Бот остановлен")
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			go bot.handleMessage(ctx, update.Message)
		}
	}
}
