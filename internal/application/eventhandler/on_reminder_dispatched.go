package eventhandler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON REMINDER DISPATCHED HANDLER
// Ведёт учёт исходов push-напоминаний.
//
// Планировщик публикует событие на каждую попытку отправки. Обработчик
// логирует исход и накапливает счётчики, которые отдаёт health-эндпоинт
// воркера.
// ═══════════════════════════════════════════════════════════════════════════

// ReminderStats содержит накопленные счётчики отправки напоминаний.
type ReminderStats struct {
	Sent           int       `json:"sent"`
	Failed         int       `json:"failed"`
	LastDispatchAt time.Time `json:"last_dispatch_at"`
	LastError      string    `json:"last_error,omitempty"`
}

// OnReminderDispatchedHandler логирует и считает исходы напоминаний.
type OnReminderDispatchedHandler struct {
	mu     sync.Mutex
	stats  ReminderStats
	logger *slog.Logger
}

// NewOnReminderDispatchedHandler создаёт новый обработчик исходов напоминаний.
func NewOnReminderDispatchedHandler(logger *slog.Logger) *OnReminderDispatchedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnReminderDispatchedHandler{
		logger: logger.With("handler", "on_reminder_dispatched"),
	}
}

// Handle обрабатывает событие отправки напоминания.
// Реализует интерфейс shared.EventHandler.
func (h *OnReminderDispatchedHandler) Handle(event shared.Event) error {
	reminderEvent, ok := event.(shared.ReminderDispatchedEvent)
	if !ok {
		h.logger.Warn("received non-ReminderDispatchedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.mu.Lock()
	h.stats.LastDispatchAt = reminderEvent.OccurredAt()
	switch reminderEvent.EventType() {
	case shared.EventReminderSent:
		h.stats.Sent++
	case shared.EventReminderFailed:
		h.stats.Failed++
		h.stats.LastError = reminderEvent.Error
	}
	h.mu.Unlock()

	if reminderEvent.EventType() == shared.EventReminderFailed {
		h.logger.Warn("reminder delivery failed",
			"user_id", reminderEvent.UserID,
			"course_id", reminderEvent.CourseID,
			"reason", reminderEvent.Reason,
			"error", reminderEvent.Error,
		)
		return nil
	}

	h.logger.Info("reminder delivered",
		"user_id", reminderEvent.UserID,
		"course_id", reminderEvent.CourseID,
		"course_name", reminderEvent.CourseName,
		"reason", reminderEvent.Reason,
	)

	return nil
}

// Stats возвращает снимок накопленных счётчиков.
func (h *OnReminderDispatchedHandler) Stats() ReminderStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// EventTypes возвращает типы событий, которые обрабатывает этот handler.
func (h *OnReminderDispatchedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventReminderSent,
		shared.EventReminderFailed,
	}
}

// Register подписывает обработчик на все его типы событий.
func (h *OnReminderDispatchedHandler) Register(bus shared.EventSubscriber) error {
	for _, eventType := range h.EventTypes() {
		if err := bus.Subscribe(eventType, h.Handle); err != nil {
			return err
		}
	}
	return nil
}
