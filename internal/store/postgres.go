package store

import (
	"context"
	"fmt"
	"time"

	"golos-ai/internal/config"
	"golos-ai/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store представляет интерфейс для работы с базой данных
type Store interface {
	Synthesis() SynthesisRepository
	DB() *pgxpool.Pool
	Close() error
}

// store реализует интерфейс Store
type store struct {
	db        *pgxpool.Pool
	logger    *zap.Logger
	synthesis SynthesisRepository
}

// SynthesisRepository интерфейс для работы с историей запросов синтеза
type SynthesisRepository interface {
	Create(ctx context.Context, rec *models.SynthesisRecord) error
	GetByChatID(ctx context.Context, chatID int64, limit int) ([]models.SynthesisRecord, error)
	GetChatStats(ctx context.Context, chatID int64) (*models.ChatStats, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// NewStore создает новое подключение к базе данных
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Создание пула подключений
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	// Настройка пула
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	// Создание пула
	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	// Проверка подключения
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}

	logger.Info("успешное подключение к базе данных PostgreSQL")

	s := &store{
		db:     db,
		logger: logger,
	}

	// Инициализация репозиториев
	s.synthesis = NewSynthesisRepository(db, logger)

	return s, nil
}

// Synthesis возвращает репозиторий истории запросов синтеза
func (s *store) Synthesis() SynthesisRepository {
	return s.synthesis
}

// DB возвращает подключение к базе данных
func (s *store) DB() *pgxpool.Pool {
	return s.db
}

// Close закрывает подключение к базе данных
func (s *store) Close() error {
	s.logger.Info("закрытие подключения к базе данных")
	s.db.Close()
	return nil
}
