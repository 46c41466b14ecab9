package notification

import (
	"context"

	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
)

// ══════════════════════════════════════════════════════════════════════════════
// SENDER INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Sender - транспорт доставки push-уведомлений. Реализация находится
// в infrastructure/external/webpush.
//
// Пакетный скан не повторяет неудачные отправки внутри прогона:
// следующий часовой прогон вычислит напоминание заново.
type Sender interface {
	// Send отправляет уведомление на push-подписку.
	// Результат всегда возвращается, даже при ошибке - вызывающий
	// сам решает, что делать с неудачей.
	Send(ctx context.Context, sub *profile.PushSubscription, n *Notification) DeliveryResult

	// IsAvailable проверяет доступность транспорта (ключи VAPID
	// настроены, circuit breaker не разомкнут).
	IsAvailable() bool
}
