package models

import (
	"time"
)

// Статусы запроса синтеза речи
const (
	SynthesisStatusSuccess = "success"
	SynthesisStatusFailed  = "failed"
)

// SynthesisRecord представляет запись об одном запросе синтеза речи
type SynthesisRecord struct {
	ID         int64     `json:"id" db:"id"`
	ChatID     int64     `json:"chat_id" db:"chat_id"`
	Text       string    `json:"text" db:"text"`
	Provider   string    `json:"provider" db:"provider"` // custom, piper
	FilePath   string    `json:"file_path" db:"file_path"`
	AudioBytes int64     `json:"audio_bytes" db:"audio_bytes"`
	DurationMs int64     `json:"duration_ms" db:"duration_ms"`
	Status     string    `json:"status" db:"status"`         // success, failed
	ErrorKind  string    `json:"error_kind" db:"error_kind"` // пусто для успешных запросов
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ChatStats представляет статистику синтеза по чату
type ChatStats struct {
	ChatID        int64 `json:"chat_id" db:"chat_id"`
	TotalRequests int   `json:"total_requests" db:"total_requests"`
	FailedCount   int   `json:"failed_count" db:"failed_count"`
	TotalBytes    int64 `json:"total_bytes" db:"total_bytes"`
}
