package profile

import (
	"context"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над профилями пользователей.
type Repository interface {
	// Get возвращает профиль пользователя.
	// Возвращает shared.ErrProfileNotFound, если профиля нет.
	Get(ctx context.Context, userID shared.UserID) (*Profile, error)

	// Save сохраняет профиль целиком (upsert).
	Save(ctx context.Context, userID shared.UserID, p *Profile) error

	// ListUserIDs возвращает идентификаторы всех пользователей
	// хранилища. Используется пакетным сканом напоминаний.
	ListUserIDs(ctx context.Context) ([]shared.UserID, error)
}

// Cache определяет операции кеширования профилей. Кеш короткоживущий
// и только для интерактивного пути чтения.
type Cache interface {
	// Get получает профиль из кеша.
	Get(ctx context.Context, userID shared.UserID) (*Profile, error)

	// Set сохраняет профиль в кеш.
	Set(ctx context.Context, userID shared.UserID, p *Profile, ttl time.Duration) error

	// Invalidate сбрасывает кеш профиля пользователя.
	Invalidate(ctx context.Context, userID shared.UserID) error
}
