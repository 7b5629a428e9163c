package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// TempCleanupJob удаляет устаревшие временные WAV файлы, которые бот
// не успел удалить сам (например, после сбоя между синтезом и отправкой).
// TTS сервисы свои файлы не удаляют — жизненный цикл файлов принадлежит хосту.
type TempCleanupJob struct {
	logger  *zap.Logger
	tempDir string
	maxAge  time.Duration
}

// NewTempCleanupJob создает новую джобу очистки временных файлов
func NewTempCleanupJob(logger *zap.Logger, tempDir string, maxAge time.Duration) *TempCleanupJob {
	return &TempCleanupJob{
		logger:  logger,
		tempDir: tempDir,
		maxAge:  maxAge,
	}
}

// Name возвращает название задачи
func (j *TempCleanupJob) Name() string {
	return "temp_cleanup"
}

// Run удаляет WAV файлы старше максимального возраста
func (j *TempCleanupJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.maxAge)

	deleted, err := CleanupTempFiles(j.tempDir, cutoff, false, j.logger)
	if err != nil {
		return fmt.Errorf("ошибка очистки временных файлов: %w", err)
	}

	if deleted > 0 {
		j.logger.Info("временные аудио файлы удалены",
			zap.Int("deleted", deleted),
			zap.String("dir", j.tempDir),
			zap.Duration("max_age", j.maxAge))
	}

	return nil
}

// CleanupTempFiles удаляет из директории WAV файлы синтеза старше cutoff.
// В режиме dryRun файлы только подсчитываются. Посторонние файлы не трогаются.
func CleanupTempFiles(tempDir string, cutoff time.Time, dryRun bool, logger *zap.Logger) (int, error) {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		// Директория еще не создана — нечего удалять
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("ошибка чтения директории %s: %w", tempDir, err)
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !isSynthesisFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(tempDir, entry.Name())

		if dryRun {
			logger.Info("DRY RUN: файл будет удален",
				zap.String("path", path),
				zap.Time("mod_time", info.ModTime()))
			deleted++
			continue
		}

		if err := os.Remove(path); err != nil {
			logger.Warn("ошибка удаления временного файла",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		deleted++
	}

	return deleted, nil
}

// isSynthesisFile проверяет, что файл создан одним из TTS сервисов
func isSynthesisFile(name string) bool {
	if filepath.Ext(name) != ".wav" {
		return false
	}
	matched, _ := filepath.Match("custom_tts_*.wav", name)
	if matched {
		return true
	}
	matched, _ = filepath.Match("piper_tts_*.wav", name)
	return matched
}
