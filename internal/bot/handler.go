package bot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golos-ai/internal/metrics"
	"golos-ai/internal/store"
	"golos-ai/internal/tts"
	"golos-ai/pkg/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	// Лимиты безопасности
	MaxTextLength = 1000 // Максимальная длина текста для озвучки

	// Rate limiting
	MaxRequestsPerMinute = 10 // Максимум запросов синтеза в минуту на чат
	RateLimitWindow      = time.Minute

	// Количество записей истории для /stats
	HistoryLimit = 5
)

// RateLimiter простой rate limiter для чатов
type RateLimiter struct {
	requests map[int64][]time.Time
	mutex    sync.RWMutex
}

// NewRateLimiter создает новый rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		requests: make(map[int64][]time.Time),
	}
}

// IsAllowed проверяет, разрешен ли запрос для чата
func (rl *RateLimiter) IsAllowed(chatID int64) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()

	// Удаляем старые запросы
	var validRequests []time.Time
	for _, reqTime := range rl.requests[chatID] {
		if now.Sub(reqTime) < RateLimitWindow {
			validRequests = append(validRequests, reqTime)
		}
	}

	// Проверяем лимит
	if len(validRequests) >= MaxRequestsPerMinute {
		rl.requests[chatID] = validRequests
		return false
	}

	// Добавляем текущий запрос
	validRequests = append(validRequests, now)
	rl.requests[chatID] = validRequests
	return true
}

// Handler представляет обработчик сообщений Telegram
type Handler struct {
	bot         *tgbotapi.BotAPI
	ttsService  tts.TTSService
	store       store.Store
	metrics     *metrics.Metrics
	logger      *zap.Logger
	rateLimiter *RateLimiter
}

// NewHandler создает новый обработчик
func NewHandler(
	bot *tgbotapi.BotAPI,
	ttsService tts.TTSService,
	store store.Store,
	metrics *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:         bot,
		ttsService:  ttsService,
		store:       store,
		metrics:     metrics,
		logger:      logger,
		rateLimiter: NewRateLimiter(),
	}
}

// HandleUpdate обрабатывает обновление от Telegram
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil {
		return nil
	}

	message := update.Message
	chatID := message.Chat.ID

	if message.IsCommand() {
		h.metrics.RecordBotMessage("command")
		return h.handleCommand(ctx, message)
	}

	if message.Text == "" {
		return h.sendMessage(chatID, "Пришли мне текст, и я отвечу голосовым сообщением 🎙")
	}

	h.metrics.RecordBotMessage("text")
	return h.handleTextMessage(ctx, message)
}

// handleCommand обрабатывает команды бота
func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		return h.sendMessage(chatID,
			"Привет! Я озвучиваю текстовые сообщения.\n\n"+
				"Просто пришли мне текст — в ответ получишь голосовое сообщение.\n\n"+
				"Команды:\n"+
				"/status — проверить доступность сервиса озвучки\n"+
				"/stats — статистика озвучек в этом чате\n"+
				"/history — последние озвучки\n"+
				"/help — справка")

	case "help":
		return h.sendMessage(chatID,
			fmt.Sprintf("Пришли текст до %d символов — я преобразую его в голосовое сообщение.\n\n"+
				"Лимит: %d озвучек в минуту на чат.", MaxTextLength, MaxRequestsPerMinute))

	case "status":
		return h.handleStatusCommand(ctx, chatID)

	case "stats":
		return h.handleStatsCommand(ctx, chatID)

	case "history":
		return h.handleHistoryCommand(ctx, chatID)

	default:
		return h.sendMessage(chatID, "Неизвестная команда. Посмотри /help")
	}
}

// handleStatusCommand проверяет доступность TTS сервиса и сообщает результат
func (h *Handler) handleStatusCommand(ctx context.Context, chatID int64) error {
	reachable := h.ttsService.TestConnection(ctx)
	h.metrics.SetServiceReachable(reachable)

	h.logger.Info("проверка доступности TTS сервиса",
		zap.String("provider", h.ttsService.GetName()),
		zap.Bool("reachable", reachable))

	if reachable {
		return h.sendMessage(chatID, "✅ Сервис озвучки доступен")
	}
	return h.sendMessage(chatID, "❌ Сервис озвучки сейчас недоступен, попробуй позже")
}

// handleStatsCommand отправляет статистику озвучек в чате
func (h *Handler) handleStatsCommand(ctx context.Context, chatID int64) error {
	stats, err := h.store.Synthesis().GetChatStats(ctx, chatID)
	if err != nil {
		h.logger.Error("ошибка получения статистики чата",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return h.sendMessage(chatID, "Не удалось получить статистику 😔")
	}

	return h.sendMessage(chatID, fmt.Sprintf(
		"📊 Статистика озвучек:\n"+
			"Всего запросов: %d\n"+
			"Неудачных: %d\n"+
			"Сгенерировано аудио: %.1f КБ",
		stats.TotalRequests, stats.FailedCount, float64(stats.TotalBytes)/1024))
}

// handleHistoryCommand отправляет последние озвучки в чате
func (h *Handler) handleHistoryCommand(ctx context.Context, chatID int64) error {
	records, err := h.store.Synthesis().GetByChatID(ctx, chatID, HistoryLimit)
	if err != nil {
		h.logger.Error("ошибка получения истории синтеза",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return h.sendMessage(chatID, "Не удалось получить историю 😔")
	}

	if len(records) == 0 {
		return h.sendMessage(chatID, "В этом чате еще ничего не озвучивалось")
	}

	var b strings.Builder
	b.WriteString("🕘 Последние озвучки:\n")
	for _, rec := range records {
		mark := "✅"
		if rec.Status == models.SynthesisStatusFailed {
			mark = "❌"
		}
		fmt.Fprintf(&b, "%s %s — %s\n", mark, rec.CreatedAt.Format("02.01 15:04"), SanitizeForLog(rec.Text))
	}

	return h.sendMessage(chatID, b.String())
}

// handleTextMessage озвучивает текст сообщения и отправляет голосовой ответ
func (h *Handler) handleTextMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	text := message.Text

	if len(text) > MaxTextLength {
		return h.sendMessage(chatID,
			fmt.Sprintf("Текст слишком длинный: %d символов при лимите %d", len(text), MaxTextLength))
	}

	if !h.rateLimiter.IsAllowed(chatID) {
		h.metrics.RecordBotMessage("rate_limited")
		h.logger.Warn("превышен лимит запросов", zap.Int64("chat_id", chatID))
		return h.sendMessage(chatID, "Слишком много запросов, подожди минуту ⏳")
	}

	// Показываем статус записи голосового, пока идет синтез
	_, _ = h.bot.Request(tgbotapi.NewChatAction(chatID, "record_voice"))

	provider := h.ttsService.GetName()
	start := time.Now()

	audioPath, err := h.ttsService.SynthesizeToFile(ctx, text)
	elapsed := time.Since(start)

	h.metrics.RecordSynthesis(provider, err == nil, elapsed.Seconds())

	record := &models.SynthesisRecord{
		ChatID:     chatID,
		Text:       text,
		Provider:   provider,
		DurationMs: elapsed.Milliseconds(),
	}

	if err != nil {
		kind := tts.ErrorKind(err)
		h.metrics.RecordSynthesisError(provider, kind)

		record.Status = models.SynthesisStatusFailed
		record.ErrorKind = kind
		h.saveRecord(ctx, record)

		h.logger.Error("ошибка синтеза речи",
			zap.Int64("chat_id", chatID),
			zap.String("provider", provider),
			zap.String("kind", kind),
			zap.String("text", SanitizeForLog(text)),
			zap.Error(err))

		return h.sendMessage(chatID, synthesisErrorReply(kind))
	}

	if info, statErr := os.Stat(audioPath); statErr == nil {
		record.AudioBytes = info.Size()
		h.metrics.RecordAudioSize(info.Size())
	}

	record.Status = models.SynthesisStatusSuccess
	record.FilePath = audioPath
	h.saveRecord(ctx, record)

	voice := tgbotapi.NewVoice(chatID, tgbotapi.FilePath(audioPath))
	if _, err := h.bot.Send(voice); err != nil {
		h.logger.Error("ошибка отправки голосового сообщения",
			zap.Int64("chat_id", chatID),
			zap.String("path", audioPath),
			zap.Error(err))
		return fmt.Errorf("ошибка отправки голосового сообщения: %w", err)
	}

	// Файл загружен в Telegram, локальная копия больше не нужна
	if err := os.Remove(audioPath); err != nil {
		h.logger.Warn("ошибка удаления временного файла",
			zap.String("path", audioPath),
			zap.Error(err))
	}

	h.logger.Info("голосовое сообщение отправлено",
		zap.Int64("chat_id", chatID),
		zap.String("provider", provider),
		zap.Duration("synthesis_time", elapsed))

	return nil
}

// saveRecord сохраняет запись истории синтеза, не прерывая обработку при ошибке
func (h *Handler) saveRecord(ctx context.Context, record *models.SynthesisRecord) {
	if err := h.store.Synthesis().Create(ctx, record); err != nil {
		h.logger.Error("ошибка сохранения истории синтеза",
			zap.Int64("chat_id", record.ChatID),
			zap.Error(err))
	}
}

// synthesisErrorReply подбирает ответ пользователю по классу ошибки синтеза
func synthesisErrorReply(kind string) string {
	switch kind {
	case "empty_text":
		return "Мне нечего озвучивать — текст пуст 🤔"
	case "timeout":
		return "Сервис озвучки отвечает слишком долго, попробуй позже ⏳"
	case "network", "remote_rejected", "empty_audio":
		return "Сервис озвучки сейчас недоступен, попробуй позже 😔"
	default:
		return "Не получилось озвучить сообщение, попробуй еще раз 😔"
	}
}

// sendMessage отправляет текстовое сообщение в чат
func (h *Handler) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		return fmt.Errorf("ошибка отправки сообщения: %w", err)
	}
	return nil
}

// SanitizeForLog усекает текст для логирования
func SanitizeForLog(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) > 80 {
		return text[:80] + "..."
	}
	return text
}
