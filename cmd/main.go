package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golos-ai/internal/bot"
	"golos-ai/internal/config"
	"golos-ai/internal/metrics"
	"golos-ai/internal/migrations"
	"golos-ai/internal/scheduler"
	"golos-ai/internal/store"
	"golos-ai/internal/tts"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func main() {
	// Инициализация логгера
	logger, err := initLogger()
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск приложения Golos AI")

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("ошибка загрузки конфигурации", zap.Error(err))
	}

	// Инициализация базы данных
	store, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("ошибка инициализации базы данных", zap.Error(err))
	}
	defer store.Close()

	// Применение миграций
	if err := migrations.RunMigrations(cfg, logger); err != nil {
		logger.Fatal("ошибка применения миграций", zap.Error(err))
	}

	// Инициализация TTS сервиса
	logger.Info("конфигурация TTS",
		zap.String("provider", cfg.TTS.Provider),
		zap.String("model", cfg.TTS.Model),
		zap.String("temp_dir", cfg.TTS.TempDir))

	ttsService, err := tts.NewTTSService(tts.Config{
		Provider: cfg.TTS.Provider,
		APIBase:  cfg.TTS.APIBase,
		APIKey:   cfg.TTS.APIKey,
		Timeout:  cfg.TTS.Timeout(),
		Role:     cfg.TTS.Role,
		Emotion:  cfg.TTS.Emotion,
		Speed:    cfg.TTS.Speed,
		Model:    cfg.TTS.Model,
		PiperURL: cfg.TTS.PiperURL,
		TempDir:  cfg.TTS.TempDir,
	}, logger)
	if err != nil {
		logger.Fatal("ошибка создания TTS сервиса", zap.Error(err))
	}

	// Инициализация метрик
	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, logger)

	// Проверяем доступность TTS сервиса при старте (не критично для запуска)
	reachable := ttsService.TestConnection(context.Background())
	metricsSystem.SetServiceReachable(reachable)
	if reachable {
		logger.Info("TTS сервис доступен", zap.String("provider", ttsService.GetName()))
	} else {
		logger.Warn("TTS сервис недоступен при старте, бот продолжит работу",
			zap.String("provider", ttsService.GetName()))
	}

	// Инициализация Telegram бота
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal("ошибка инициализации Telegram бота", zap.Error(err))
	}

	botInfo, err := botAPI.GetMe()
	if err != nil {
		logger.Fatal("ошибка получения информации о боте", zap.Error(err))
	}

	logger.Info("Telegram бот инициализирован",
		zap.String("username", botInfo.UserName),
		zap.Int64("id", botInfo.ID))

	// Инициализация обработчика
	handler := bot.NewHandler(botAPI, ttsService, store, metricsSystem, logger)

	// Инициализация планировщика задач
	taskScheduler := scheduler.NewScheduler(logger)

	// Джоба очистки устаревших временных WAV файлов
	cleanupJob := scheduler.NewTempCleanupJob(logger, cfg.TTS.TempDir, cfg.TTS.TempMaxAgeDuration())
	taskScheduler.AddJob(cleanupJob)

	// Создание канала для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Обработка сигналов для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Запуск HTTP сервера для метрик
	go startMetricsServer(ctx, cfg.App.Port, metricsHandler, logger)

	// Запуск планировщика задач (каждый час)
	go taskScheduler.Start(ctx, time.Hour)

	// Запуск обработки обновлений
	go handleUpdates(ctx, botAPI, handler, logger)

	logger.Info("приложение запущено и готово к работе",
		zap.String("address", fmt.Sprintf("http://localhost:%d", cfg.App.Port)),
	)

	// Ожидание сигнала завершения
	<-sigChan
	logger.Info("получен сигнал завершения, начинаем graceful shutdown")

	// Останавливаем получение обновлений
	botAPI.StopReceivingUpdates()
	cancel()

	logger.Info("приложение завершено")
}

// initLogger инициализирует логгер
func initLogger() (*zap.Logger, error) {
	// В продакшене можно использовать JSON формат
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stdout", "logs/app.log"}
	config.ErrorOutputPaths = []string{"stderr", "logs/error.log"}

	// Создаем директорию для логов если её нет
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
	}

	return config.Build()
}

// handleUpdates обрабатывает обновления от Telegram
func handleUpdates(ctx context.Context, botAPI *tgbotapi.BotAPI, handler *bot.Handler, logger *zap.Logger) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case update := <-updates:
			// Пропускаем пустые обновления
			if update.Message == nil {
				continue
			}

			// Обрабатываем обновление в горутине
			go func(update tgbotapi.Update) {
				if err := handler.HandleUpdate(ctx, update); err != nil {
					logger.Error("ошибка обработки обновления",
						zap.Int64("chat_id", update.Message.Chat.ID),
						zap.Error(err))
				}
			}(update)

		case <-ctx.Done():
			logger.Info("остановка обработки обновлений")
			return
		}
	}
}

// startMetricsServer запускает HTTP сервер для метрик
func startMetricsServer(ctx context.Context, port int, handler *metrics.Handler, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler.MetricsHandler())
	mux.HandleFunc("/health", handler.HealthHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	logger.Info("HTTP сервер метрик запущен", zap.String("address", server.Addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ошибка HTTP сервера метрик", zap.Error(err))
		}
	}()

	// Ожидание сигнала завершения
	<-ctx.Done()

	// Graceful shutdown HTTP сервера
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера метрик", zap.Error(err))
	}

	logger.Info("HTTP сервер метрик остановлен")
}
