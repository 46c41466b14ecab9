package course

import (
	"context"

	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции CRUD для курсов. Все операции
// ограничены одним пользователем - курсы других пользователей
// недостижимы через этот контракт.
type Repository interface {
	// Create сохраняет новый курс и возвращает назначенный хранилищем ID.
	Create(ctx context.Context, userID shared.UserID, c *Course) (string, error)

	// GetByID возвращает курс по ID.
	// Возвращает shared.ErrCourseNotFound, если курс не найден.
	GetByID(ctx context.Context, userID shared.UserID, courseID string) (*Course, error)

	// ListByUser возвращает все курсы пользователя.
	ListByUser(ctx context.Context, userID shared.UserID) ([]*Course, error)

	// Update обновляет данные курса.
	// Возвращает shared.ErrCourseNotFound, если курс не найден.
	Update(ctx context.Context, userID shared.UserID, c *Course) error

	// Delete удаляет курс вместе с его журналом посещаемости.
	// Возвращает shared.ErrCourseNotFound, если курс не найден.
	Delete(ctx context.Context, userID shared.UserID, courseID string) error
}

// Cache определяет операции кеширования списка курсов пользователя.
// Кешируются только сырые документы; производные метрики никогда
// не кешируются - они считаются заново при каждом чтении журнала.
type Cache interface {
	// GetList получает список курсов пользователя из кеша.
	GetList(ctx context.Context, userID shared.UserID) ([]*Course, error)

	// SetList сохраняет список курсов пользователя в кеш.
	SetList(ctx context.Context, userID shared.UserID, courses []*Course) error

	// Invalidate сбрасывает кеш курсов пользователя.
	Invalidate(ctx context.Context, userID shared.UserID) error
}
