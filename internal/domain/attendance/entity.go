// Package attendance содержит журнал посещаемости курса и чистый
// калькулятор производных метрик (см. metrics.go).
package attendance

import (
	"fmt"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Status - отметка посещаемости одного занятия.
type Status string

const (
	// StatusPresent - пользователь присутствовал на занятии.
	StatusPresent Status = "present"
	// StatusAbsent - пользователь пропустил занятие.
	StatusAbsent Status = "absent"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// ParseStatus разбирает строку в Status.
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.IsValid() {
		return "", shared.ErrInvalidStatus
	}
	return s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LOG ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry - одна запись журнала посещаемости. Записи неизменяемы:
// их можно только добавлять и удалять, исправление делается через
// отмену последней записи.
type Entry struct {
	// ID - идентификатор записи, назначается хранилищем.
	ID string

	// Status - отметка (present/absent).
	Status Status

	// RecordedAt - момент записи. Всегда назначается хранилищем
	// в момент записи, никогда не принимается от клиента.
	RecordedAt time.Time
}

// NewEntry создаёт запись с валидацией статуса. RecordedAt заполняет
// хранилище при сохранении.
func NewEntry(status Status) (*Entry, error) {
	if !status.IsValid() {
		return nil, shared.ErrInvalidStatus
	}
	return &Entry{Status: status}, nil
}

// String возвращает строковое представление записи для логирования.
func (e *Entry) String() string {
	return fmt.Sprintf("Entry{ID: %s, Status: %s, At: %s}", e.ID, e.Status, e.RecordedAt.Format(time.RFC3339))
}
