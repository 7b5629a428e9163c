package tts

import "context"

// TTSService представляет интерфейс для Text-to-Speech сервиса
type TTSService interface {
	// SynthesizeToFile преобразует текст в аудио и возвращает путь к WAV файлу.
	// Удаление файла — ответственность вызывающей стороны.
	SynthesizeToFile(ctx context.Context, text string) (string, error)

	// TestConnection проверяет доступность TTS сервиса.
	// Никогда не возвращает ошибку, только true/false.
	TestConnection(ctx context.Context) bool

	// GetName возвращает название провайдера
	GetName() string
}
