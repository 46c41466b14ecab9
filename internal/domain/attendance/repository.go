package attendance

import (
	"context"

	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// LogRepository определяет операции над журналом посещаемости курса.
// Записи только добавляются и удаляются; обновления нет.
type LogRepository interface {
	// Append добавляет запись в журнал. Момент записи назначает
	// хранилище; возвращённая запись содержит ID и RecordedAt.
	Append(ctx context.Context, userID shared.UserID, courseID string, entry *Entry) (*Entry, error)

	// ListByCourse возвращает все записи журнала в порядке
	// возрастания времени записи.
	ListByCourse(ctx context.Context, userID shared.UserID, courseID string) ([]*Entry, error)

	// Latest возвращает последнюю по времени запись журнала.
	// Возвращает shared.ErrEmptyLog, если журнал пуст.
	Latest(ctx context.Context, userID shared.UserID, courseID string) (*Entry, error)

	// Delete удаляет одну запись журнала.
	// Возвращает shared.ErrEntryNotFound, если запись не найдена.
	Delete(ctx context.Context, userID shared.UserID, courseID, entryID string) error
}
