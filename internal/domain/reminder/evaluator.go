// Package reminder содержит чистую логику вычисления напоминаний:
// какие курсы пользователя заслуживают уведомления в данный момент.
// Пакет не имеет побочных эффектов - доставкой занимается
// инфраструктура.
package reminder

import (
	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REASON
// ══════════════════════════════════════════════════════════════════════════════

// Reason - причина напоминания.
type Reason string

const (
	// ReasonClassSoon - занятие начинается примерно через час.
	ReasonClassSoon Reason = "class_soon"

	// ReasonLowAllowance - занятие сегодня, а запас пропусков
	// практически исчерпан.
	ReasonLowAllowance Reason = "low_allowance"
)

// String возвращает строковое представление причины.
func (r Reason) String() string {
	return string(r)
}

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER
// ══════════════════════════════════════════════════════════════════════════════

// Reminder - одно вычисленное напоминание по курсу.
type Reminder struct {
	// CourseID - идентификатор курса.
	CourseID string

	// CourseName - название курса.
	CourseName string

	// ClassTime - время начала занятия.
	ClassTime shared.ClockTime

	// Reason - причина напоминания.
	Reason Reason

	// BunksLeft - оставшийся запас пропусков (для ReasonLowAllowance).
	BunksLeft int
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// Порог "запас на исходе": напоминаем, когда пропусков осталось
// не больше одного.
const lowAllowanceThreshold = 1

// Evaluate вычисляет напоминания по одному курсу на заданный момент.
// Вычисление детерминировано: один и тот же (курс, журнал, момент)
// всегда даёт один и тот же результат. Курс без расписания никогда
// не порождает напоминаний.
//
// Условие "скоро занятие" сравнивает час занятия с hour+1 без
// перехода через полночь: занятие в 23:xx при моменте 23:00 не
// считается "через час" (23+1 != 0).
func Evaluate(c *course.Course, entries []*attendance.Entry, at shared.Moment) ([]Reminder, error) {
	if c == nil || c.Schedule == nil {
		return nil, nil
	}
	if !at.IsValid() {
		return nil, shared.NewDomainError("reminder", "Evaluate", shared.ErrInvalidInput, "moment is out of range")
	}

	if !c.MeetsOn(at.Weekday) {
		return nil, nil
	}

	var reminders []Reminder

	if c.Schedule.ClassHour() == at.Hour+1 {
		reminders = append(reminders, Reminder{
			CourseID:   c.ID,
			CourseName: c.Name,
			ClassTime:  c.Schedule.Time,
			Reason:     ReasonClassSoon,
		})
	}

	m, err := attendance.Compute(c.TotalSessions, entries, attendance.GradeAPlus)
	if err != nil {
		return nil, err
	}
	if m.BunksLeft <= lowAllowanceThreshold {
		reminders = append(reminders, Reminder{
			CourseID:   c.ID,
			CourseName: c.Name,
			ClassTime:  c.Schedule.Time,
			Reason:     ReasonLowAllowance,
			BunksLeft:  m.BunksLeft,
		})
	}

	return reminders, nil
}

// EvaluateAll вычисляет напоминания по набору курсов. Журналы
// передаются по ID курса; отсутствующий журнал эквивалентен пустому.
func EvaluateAll(courses []*course.Course, logs map[string][]*attendance.Entry, at shared.Moment) ([]Reminder, error) {
	var all []Reminder
	for _, c := range courses {
		rs, err := Evaluate(c, logs[c.ID], at)
		if err != nil {
			return nil, err
		}
		all = append(all, rs...)
	}
	return all, nil
}
