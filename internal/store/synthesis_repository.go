package store

import (
	"context"
	"fmt"
	"time"

	"golos-ai/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// synthesisRepository реализует SynthesisRepository
type synthesisRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewSynthesisRepository создает новый репозиторий истории запросов синтеза
func NewSynthesisRepository(db *pgxpool.Pool, logger *zap.Logger) SynthesisRepository {
	return &synthesisRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает запись о запросе синтеза
func (r *synthesisRepository) Create(ctx context.Context, rec *models.SynthesisRecord) error {
	query := `
		INSERT INTO synthesis_requests (chat_id, text, provider, file_path, audio_bytes, duration_ms, status, error_kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	rec.CreatedAt = time.Now()

	err := r.db.QueryRow(ctx, query,
		rec.ChatID, rec.Text, rec.Provider, rec.FilePath,
		rec.AudioBytes, rec.DurationMs, rec.Status, rec.ErrorKind, rec.CreatedAt,
	).Scan(&rec.ID)

	if err != nil {
		return fmt.Errorf("ошибка создания записи о синтезе: %w", err)
	}

	r.logger.Debug("запись о синтезе создана",
		zap.Int64("id", rec.ID),
		zap.Int64("chat_id", rec.ChatID),
		zap.String("provider", rec.Provider),
		zap.String("status", rec.Status))

	return nil
}

// GetByChatID получает последние запросы синтеза для чата
func (r *synthesisRepository) GetByChatID(ctx context.Context, chatID int64, limit int) ([]models.SynthesisRecord, error) {
	query := `
		SELECT id, chat_id, text, provider, file_path, audio_bytes, duration_ms, status, error_kind, created_at
		FROM synthesis_requests
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории синтеза: %w", err)
	}
	defer rows.Close()

	var records []models.SynthesisRecord
	for rows.Next() {
		var rec models.SynthesisRecord
		err := rows.Scan(
			&rec.ID, &rec.ChatID, &rec.Text, &rec.Provider, &rec.FilePath,
			&rec.AudioBytes, &rec.DurationMs, &rec.Status, &rec.ErrorKind, &rec.CreatedAt,
		)
		if err != nil {
			r.logger.Error("ошибка сканирования записи о синтезе", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// GetChatStats получает статистику синтеза по чату
func (r *synthesisRepository) GetChatStats(ctx context.Context, chatID int64) (*models.ChatStats, error) {
	query := `
		SELECT
			$1::bigint as chat_id,
			COUNT(*) as total_requests,
			COUNT(*) FILTER (WHERE status = 'failed') as failed_count,
			COALESCE(SUM(audio_bytes), 0) as total_bytes
		FROM synthesis_requests
		WHERE chat_id = $1`

	stats := &models.ChatStats{}
	err := r.db.QueryRow(ctx, query, chatID).Scan(
		&stats.ChatID, &stats.TotalRequests, &stats.FailedCount, &stats.TotalBytes,
	)

	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики чата: %w", err)
	}

	return stats, nil
}

// DeleteOlderThan удаляет записи о синтезе старше указанного возраста
func (r *synthesisRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-age)

	query := `DELETE FROM synthesis_requests WHERE created_at < $1`

	result, err := r.db.Exec(ctx, query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления старых записей о синтезе: %w", err)
	}

	deleted := result.RowsAffected()
	r.logger.Info("удалены старые записи о синтезе",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff_time", cutoffTime))

	return deleted, nil
}
