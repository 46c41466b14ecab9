// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON COURSE CHANGED HANDLER
// Обрабатывает события жизненного цикла курса (создание, изменение, удаление).
//
// Единственная обязанность — сброс кеша списка курсов пользователя.
// Кеш хранит только сырые документы хранилища, поэтому события посещаемости
// его не затрагивают: метрики всегда пересчитываются из журнала.
// ═══════════════════════════════════════════════════════════════════════════

// OnCourseChangedHandler сбрасывает кеш курсов при изменении курса.
type OnCourseChangedHandler struct {
	courseCache course.Cache
	logger      *slog.Logger
}

// NewOnCourseChangedHandler создаёт новый обработчик событий курса.
func NewOnCourseChangedHandler(
	courseCache course.Cache,
	logger *slog.Logger,
) *OnCourseChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnCourseChangedHandler{
		courseCache: courseCache,
		logger:      logger.With("handler", "on_course_changed"),
	}
}

// Handle обрабатывает событие изменения курса.
// Реализует интерфейс shared.EventHandler.
func (h *OnCourseChangedHandler) Handle(event shared.Event) error {
	courseEvent, ok := event.(shared.CourseChangedEvent)
	if !ok {
		h.logger.Warn("received non-CourseChangedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	if h.courseCache == nil {
		return nil
	}

	ctx := context.Background()
	userID := shared.UserID(courseEvent.UserID)

	if err := h.courseCache.Invalidate(ctx, userID); err != nil {
		// Кеш не критичен: запись в хранилище уже состоялась,
		// устаревший список доживёт максимум до истечения TTL.
		h.logger.Warn("failed to invalidate course cache",
			"user_id", courseEvent.UserID,
			"course_id", courseEvent.CourseID,
			"error", err,
		)
		return nil
	}

	h.logger.Debug("course cache invalidated",
		"user_id", courseEvent.UserID,
		"course_id", courseEvent.CourseID,
		"event_type", courseEvent.EventType(),
	)

	return nil
}

// EventTypes возвращает типы событий, которые обрабатывает этот handler.
func (h *OnCourseChangedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventCourseCreated,
		shared.EventCourseUpdated,
		shared.EventCourseDeleted,
	}
}

// Register подписывает обработчик на все его типы событий.
func (h *OnCourseChangedHandler) Register(bus shared.EventSubscriber) error {
	for _, eventType := range h.EventTypes() {
		if err := bus.Subscribe(eventType, h.Handle); err != nil {
			return err
		}
	}
	return nil
}
