// Package notification содержит доменную модель push-уведомлений.
// Уведомления - единственный исходящий канал системы: короткие
// напоминания о занятиях, доставляемые через Web Push.
package notification

import (
	"fmt"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// DefaultIconURL - иконка уведомлений по умолчанию.
const DefaultIconURL = "https://attendance-hub.app/icons/icon-192.png"

// Notification - полезная нагрузка одного push-уведомления.
// Сериализуется в JSON и передаётся push-сервису как есть.
type Notification struct {
	// Title - заголовок уведомления.
	Title string `json:"title"`

	// Body - текст уведомления.
	Body string `json:"body"`

	// Icon - URL иконки.
	Icon string `json:"icon"`
}

// IsValid проверяет, что уведомление пригодно к отправке.
func (n *Notification) IsValid() bool {
	return n != nil && n.Title != "" && n.Body != ""
}

// NewClassSoonNotification создаёт напоминание "занятие примерно через час".
func NewClassSoonNotification(courseName string) *Notification {
	return &Notification{
		Title: fmt.Sprintf("Class Reminder: %s", courseName),
		Body:  fmt.Sprintf("Your %s class is starting in about an hour!", courseName),
		Icon:  DefaultIconURL,
	}
}

// NewLowAllowanceNotification создаёт напоминание "запас пропусков на
// исходе". Отрицательный остаток показывается как 0: пользователю
// важно, что запаса нет, а не насколько он превышен.
func NewLowAllowanceNotification(courseName string, classTime shared.ClockTime, bunksLeft int) *Notification {
	if bunksLeft < 0 {
		bunksLeft = 0
	}
	plural := "s"
	if bunksLeft == 1 {
		plural = ""
	}
	return &Notification{
		Title: fmt.Sprintf("Don't skip %s today", courseName),
		Body: fmt.Sprintf("Don't miss %s today at %s! You only have %d bunk%s left.",
			courseName, classTime, bunksLeft, plural),
		Icon: DefaultIconURL,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY RESULT
// ══════════════════════════════════════════════════════════════════════════════

// DeliveryResult представляет результат доставки уведомления.
type DeliveryResult struct {
	// Success - успешно ли доставлено.
	Success bool

	// DeliveredAt - время попытки доставки.
	DeliveredAt time.Time

	// Error - ошибка доставки (если Success = false).
	Error error

	// SubscriptionGone - endpoint подписки больше не существует
	// (404/410 от push-сервиса); подписку следует удалить из профиля.
	SubscriptionGone bool
}

// NewSuccessResult создаёт результат успешной доставки.
func NewSuccessResult() DeliveryResult {
	return DeliveryResult{
		Success:     true,
		DeliveredAt: time.Now().UTC(),
	}
}

// NewFailureResult создаёт результат неудачной доставки.
func NewFailureResult(err error, gone bool) DeliveryResult {
	return DeliveryResult{
		Success:          false,
		DeliveredAt:      time.Now().UTC(),
		Error:            err,
		SubscriptionGone: gone,
	}
}
