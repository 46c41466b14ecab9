package eventhandler

import (
	"context"
	"log/slog"

	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PROFILE SAVED HANDLER
// Обрабатывает события сохранения профиля и push-подписки.
//
// Сбрасывает кеш профиля, чтобы следующий запрос (и следующий проход
// планировщика напоминаний) увидел актуальную подписку.
// ═══════════════════════════════════════════════════════════════════════════

// OnProfileSavedHandler сбрасывает кеш профиля при его изменении.
type OnProfileSavedHandler struct {
	profileCache profile.Cache
	logger       *slog.Logger
}

// NewOnProfileSavedHandler создаёт новый обработчик событий профиля.
func NewOnProfileSavedHandler(
	profileCache profile.Cache,
	logger *slog.Logger,
) *OnProfileSavedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnProfileSavedHandler{
		profileCache: profileCache,
		logger:       logger.With("handler", "on_profile_saved"),
	}
}

// Handle обрабатывает событие сохранения профиля.
// Реализует интерфейс shared.EventHandler.
func (h *OnProfileSavedHandler) Handle(event shared.Event) error {
	profileEvent, ok := event.(shared.ProfileSavedEvent)
	if !ok {
		h.logger.Warn("received non-ProfileSavedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	if h.profileCache == nil {
		return nil
	}

	ctx := context.Background()
	userID := shared.UserID(profileEvent.UserID)

	if err := h.profileCache.Invalidate(ctx, userID); err != nil {
		h.logger.Warn("failed to invalidate profile cache",
			"user_id", profileEvent.UserID,
			"error", err,
		)
		return nil
	}

	h.logger.Debug("profile cache invalidated",
		"user_id", profileEvent.UserID,
		"has_subscription", profileEvent.HasSubscription,
	)

	return nil
}

// EventTypes возвращает типы событий, которые обрабатывает этот handler.
func (h *OnProfileSavedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventProfileSaved,
		shared.EventSubscriptionSaved,
	}
}

// Register подписывает обработчик на все его типы событий.
func (h *OnProfileSavedHandler) Register(bus shared.EventSubscriber) error {
	for _, eventType := range h.EventTypes() {
		if err := bus.Subscribe(eventType, h.Handle); err != nil {
			return err
		}
	}
	return nil
}
