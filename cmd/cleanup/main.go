package main

import (
	"context"
	"flag"
	"log"
	"time"

	"golos-ai/internal/config"
	"golos-ai/internal/scheduler"
	"golos-ai/internal/store"

	"go.uber.org/zap"
)

func main() {
	var (
		maxAgeHours = flag.Int("max-age", 24, "Максимальный возраст временных файлов и записей в часах")
		skipDB      = flag.Bool("skip-db", false, "Очищать только файлы, не трогая базу данных")
		dryRun      = flag.Bool("dry-run", false, "Показать что будет удалено без фактического удаления")
	)
	flag.Parse()

	// Инициализация логгера
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Ошибка инициализации логгера:", err)
	}
	defer logger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	maxAge := time.Duration(*maxAgeHours) * time.Hour
	cutoff := time.Now().Add(-maxAge)

	// Очистка временных WAV файлов
	deletedFiles, err := scheduler.CleanupTempFiles(cfg.TTS.TempDir, cutoff, *dryRun, logger)
	if err != nil {
		logger.Fatal("Ошибка очистки временных файлов", zap.Error(err))
	}

	logger.Info("Очистка временных файлов завершена",
		zap.Int("deleted_files", deletedFiles),
		zap.String("dir", cfg.TTS.TempDir),
		zap.Bool("dry_run", *dryRun))

	if *skipDB {
		return
	}

	// Очистка старых записей истории синтеза
	st, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("Ошибка подключения к базе данных", zap.Error(err))
	}
	defer st.Close()

	ctx := context.Background()

	if *dryRun {
		logger.Info("DRY RUN: записи истории синтеза не удаляются",
			zap.Duration("max_age", maxAge))
		return
	}

	deletedRecords, err := st.Synthesis().DeleteOlderThan(ctx, maxAge)
	if err != nil {
		logger.Fatal("Ошибка очистки истории синтеза", zap.Error(err))
	}

	logger.Info("Очистка истории синтеза завершена",
		zap.Int64("deleted_records", deletedRecords),
		zap.Duration("max_age", maxAge))
}
