// Package course содержит доменную модель учебного курса.
// Это ядро бизнес-логики - здесь нет внешних зависимостей, кроме shared.
package course

import (
	"fmt"
	"strings"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Schedule описывает еженедельное расписание занятий курса:
// набор дней недели и время начала занятия.
// Расписание опционально: курс без расписания не участвует
// в напоминаниях и проверках "сегодня".
type Schedule struct {
	// Days - дни недели, когда проходят занятия.
	Days []shared.Weekday

	// Time - время начала занятия ("HH:MM", 24-часовой формат).
	Time shared.ClockTime
}

// IsValid проверяет корректность расписания.
func (s *Schedule) IsValid() bool {
	if s == nil {
		return true
	}
	if len(s.Days) == 0 || !s.Time.IsValid() {
		return false
	}
	for _, d := range s.Days {
		if !d.IsValid() {
			return false
		}
	}
	return true
}

// MeetsOn возвращает true, если занятие проходит в указанный день недели.
// Для курса без расписания всегда false.
func (s *Schedule) MeetsOn(day shared.Weekday) bool {
	if s == nil {
		return false
	}
	for _, d := range s.Days {
		if d == day {
			return true
		}
	}
	return false
}

// ClassHour возвращает час начала занятия (0-23).
// Для курса без расписания возвращает -1.
func (s *Schedule) ClassHour() int {
	if s == nil {
		return -1
	}
	return s.Time.Hour()
}

// Clone создаёт копию расписания.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	clone := &Schedule{
		Days: make([]shared.Weekday, len(s.Days)),
		Time: s.Time,
	}
	copy(clone.Days, s.Days)
	return clone
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: COURSE
// ══════════════════════════════════════════════════════════════════════════════

// Course - сущность учебного курса одного пользователя.
// Журнал посещаемости хранится отдельно (см. пакет attendance).
type Course struct {
	// ID - идентификатор курса, назначается хранилищем.
	ID string

	// Name - название курса. Обязательно.
	Name string

	// ProfessorName - имя преподавателя. Опционально.
	ProfessorName string

	// TotalSessions - общее число занятий в семестре. Минимум 1.
	TotalSessions int

	// Schedule - еженедельное расписание. Опционально.
	Schedule *Schedule

	// Notes - произвольные заметки пользователя.
	Notes string

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewCourseParams содержит параметры для создания нового курса.
type NewCourseParams struct {
	Name          string
	ProfessorName string
	TotalSessions int
	Schedule      *Schedule
	Notes         string
}

// NewCourse создаёт новый курс с валидацией всех полей.
// ID назначается хранилищем при сохранении.
func NewCourse(params NewCourseParams) (*Course, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, shared.ErrCourseNameRequired
	}

	if params.TotalSessions < 1 {
		return nil, shared.ErrInvalidTotalSessions
	}

	if !params.Schedule.IsValid() {
		return nil, shared.NewDomainError("course", "Validate", shared.ErrInvalidInput, "schedule has no days or an invalid time")
	}

	now := time.Now().UTC()

	return &Course{
		Name:          name,
		ProfessorName: strings.TrimSpace(params.ProfessorName),
		TotalSessions: params.TotalSessions,
		Schedule:      params.Schedule.Clone(),
		Notes:         params.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// EditParams содержит новые значения полей курса.
type EditParams struct {
	Name          string
	ProfessorName string
	TotalSessions int
	Schedule      *Schedule
	Notes         string
}

// ApplyEdit применяет изменения к курсу с той же валидацией, что и при
// создании. Дополнительно: новое общее число занятий не может быть
// меньше числа уже записанных отметок - история посещаемости не
// обрезается задним числом.
func (c *Course) ApplyEdit(params EditParams, recordedEntries int) error {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return shared.ErrCourseNameRequired
	}

	if params.TotalSessions < 1 {
		return shared.ErrInvalidTotalSessions
	}

	if params.TotalSessions < recordedEntries {
		return shared.ErrTotalBelowRecorded
	}

	if !params.Schedule.IsValid() {
		return shared.NewDomainError("course", "Validate", shared.ErrInvalidInput, "schedule has no days or an invalid time")
	}

	c.Name = name
	c.ProfessorName = strings.TrimSpace(params.ProfessorName)
	c.TotalSessions = params.TotalSessions
	c.Schedule = params.Schedule.Clone()
	c.Notes = params.Notes
	c.UpdatedAt = time.Now().UTC()

	return nil
}

// UpdateNotes обновляет только заметки курса (автосохранение с дашборда).
func (c *Course) UpdateNotes(notes string) {
	c.Notes = notes
	c.UpdatedAt = time.Now().UTC()
}

// MeetsOn возвращает true, если занятие проходит в указанный день недели.
func (c *Course) MeetsOn(day shared.Weekday) bool {
	return c.Schedule.MeetsOn(day)
}

// String возвращает строковое представление курса для логирования.
func (c *Course) String() string {
	return fmt.Sprintf("Course{ID: %s, Name: %s, Total: %d}", c.ID, c.Name, c.TotalSessions)
}

// Clone создаёт глубокую копию курса.
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Schedule = c.Schedule.Clone()
	return &clone
}
