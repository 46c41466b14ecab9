// Package profile содержит профиль пользователя и его push-подписку.
package profile

import (
	"strings"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// PushSubscription - подписка браузера на Web Push. Значения выдаёт
// браузер при оформлении подписки; система хранит их как есть.
type PushSubscription struct {
	// Endpoint - URL push-сервиса браузера.
	Endpoint string

	// P256dh - публичный ключ клиента (base64url).
	P256dh string

	// Auth - секрет аутентификации (base64url).
	Auth string
}

// IsValid проверяет, что подписка пригодна для отправки.
func (s *PushSubscription) IsValid() bool {
	return s != nil && s.Endpoint != "" && s.P256dh != "" && s.Auth != ""
}

// Profile - профиль пользователя. Отсутствие профиля или подписки -
// нормальное состояние, а не ошибка: такой пользователь просто
// пропускается при рассылке напоминаний.
type Profile struct {
	// Name - отображаемое имя.
	Name string

	// ExpectedGrade - ожидаемая оценка, точка отсчёта понижений.
	ExpectedGrade attendance.Grade

	// TimetableImage - картинка расписания (data-URL), хранится как
	// непрозрачный блоб.
	TimetableImage string

	// Subscription - push-подписка браузера. Опционально.
	Subscription *PushSubscription

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewProfile создаёт профиль с подрезанным именем.
func NewProfile(name string) *Profile {
	return &Profile{
		Name:      strings.TrimSpace(name),
		UpdatedAt: time.Now().UTC(),
	}
}

// GradeBasis возвращает ожидаемую оценку как базу для прогноза.
// Пустое или некорректное значение означает базу по умолчанию A+.
func (p *Profile) GradeBasis() attendance.Grade {
	if p != nil && p.ExpectedGrade.IsValid() {
		return p.ExpectedGrade
	}
	return attendance.GradeAPlus
}

// CanReceivePush возвращает true, если пользователю можно отправить
// push-уведомление.
func (p *Profile) CanReceivePush() bool {
	return p != nil && p.Subscription.IsValid()
}

// SetSubscription сохраняет push-подписку с валидацией.
func (p *Profile) SetSubscription(sub *PushSubscription) error {
	if !sub.IsValid() {
		return shared.ErrInvalidSubscription
	}
	p.Subscription = sub
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ClearSubscription удаляет push-подписку (отписка или протухший endpoint).
func (p *Profile) ClearSubscription() {
	p.Subscription = nil
	p.UpdatedAt = time.Now().UTC()
}

// Clone создаёт глубокую копию профиля.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Subscription != nil {
		sub := *p.Subscription
		clone.Subscription = &sub
	}
	return &clone
}
