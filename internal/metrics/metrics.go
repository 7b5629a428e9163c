package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics содержит все метрики приложения
type Metrics struct {
	logger *zap.Logger

	// Счетчики
	ttsRequests *prometheus.CounterVec
	ttsErrors   *prometheus.CounterVec
	botMessages *prometheus.CounterVec

	// Гистограммы
	synthesisTime *prometheus.HistogramVec
	audioSize     prometheus.Histogram

	// Gauge метрики
	serviceReachable prometheus.Gauge

	// Мьютекс для thread-safety
	mu sync.RWMutex
}

// New создает новый экземпляр метрик
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger: logger,

		// Счетчики запросов синтеза
		ttsRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_requests_total",
				Help: "Общее количество запросов синтеза речи",
			},
			[]string{"provider", "status"}, // provider: custom, piper; status: success, failed
		),

		// Счетчики ошибок синтеза
		ttsErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_errors_total",
				Help: "Общее количество ошибок синтеза речи по классам",
			},
			[]string{"provider", "kind"}, // kind: empty_text, remote_rejected, empty_audio, network, timeout, unknown
		),

		// Счетчики сообщений бота
		botMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_messages_total",
				Help: "Общее количество обработанных сообщений бота",
			},
			[]string{"type"}, // text, command, rate_limited
		),

		// Гистограмма времени синтеза
		synthesisTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tts_synthesis_time_seconds",
				Help:    "Время синтеза речи в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		// Гистограмма размера аудио
		audioSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tts_audio_bytes",
				Help:    "Размер сгенерированного аудио в байтах",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),

		// Gauge доступности TTS сервиса
		serviceReachable: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tts_service_reachable",
				Help: "Доступность TTS сервиса по последней проверке (1 - доступен, 0 - нет)",
			},
		),
	}

	// Регистрируем все метрики
	prometheus.MustRegister(
		m.ttsRequests,
		m.ttsErrors,
		m.botMessages,
		m.synthesisTime,
		m.audioSize,
		m.serviceReachable,
	)

	return m
}

// IncrementCounter увеличивает счетчик
func (m *Metrics) IncrementCounter(name string, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var counter *prometheus.CounterVec

	switch name {
	case "tts_requests_total":
		counter = m.ttsRequests
	case "tts_errors_total":
		counter = m.ttsErrors
	case "bot_messages_total":
		counter = m.botMessages
	default:
		m.logger.Error("неизвестная метрика", zap.String("name", name))
		return
	}

	counter.WithLabelValues(labels...).Inc()
	m.logger.Debug("метрика увеличена", zap.String("metric", name))
}

// ObserveHistogram добавляет наблюдение в гистограмму
func (m *Metrics) ObserveHistogram(name string, value float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case "tts_synthesis_time":
		m.synthesisTime.WithLabelValues(labels...).Observe(value)
	case "tts_audio_bytes":
		m.audioSize.Observe(value)
	default:
		m.logger.Error("неизвестная гистограмма", zap.String("name", name))
		return
	}

	m.logger.Debug("гистограмма обновлена", zap.String("metric", name), zap.Float64("value", value))
}

// RecordSynthesis записывает результат запроса синтеза речи
func (m *Metrics) RecordSynthesis(provider string, success bool, seconds float64) {
	status := "success"
	if !success {
		status = "failed"
	}

	m.IncrementCounter("tts_requests_total", provider, status)
	m.ObserveHistogram("tts_synthesis_time", seconds, provider)
}

// RecordSynthesisError записывает класс ошибки синтеза
func (m *Metrics) RecordSynthesisError(provider, kind string) {
	m.IncrementCounter("tts_errors_total", provider, kind)
}

// RecordAudioSize записывает размер сгенерированного аудио
func (m *Metrics) RecordAudioSize(sizeBytes int64) {
	m.ObserveHistogram("tts_audio_bytes", float64(sizeBytes))
}

// RecordBotMessage записывает обработанное сообщение бота
func (m *Metrics) RecordBotMessage(messageType string) {
	m.IncrementCounter("bot_messages_total", messageType)
}

// SetServiceReachable записывает результат проверки доступности TTS сервиса
func (m *Metrics) SetServiceReachable(reachable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if reachable {
		m.serviceReachable.Set(1)
	} else {
		m.serviceReachable.Set(0)
	}
}

// Handler возвращает HTTP handler для метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
