package attendance

import (
	"math"

	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRADE SCALE
// ══════════════════════════════════════════════════════════════════════════════

// Grade - буквенная оценка по фиксированной шкале.
type Grade string

const (
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B-"
	GradeCPlus  Grade = "C+"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C-"
	GradeD      Grade = "D"
	GradeF      Grade = "F"

	// GradeIncomplete - терминальная оценка "I": ставится при 10 и
	// более пропусках независимо от числа понижений.
	GradeIncomplete Grade = "I"
)

// gradeScale - шкала от лучшей к худшей. Понижения сдвигают оценку
// вправо по шкале и упираются в F.
var gradeScale = []Grade{
	GradeAPlus, GradeA, GradeAMinus,
	GradeBPlus, GradeB, GradeBMinus,
	GradeCPlus, GradeC, GradeCMinus,
	GradeD, GradeF,
}

// IsValid проверяет, что оценка есть на шкале (GradeIncomplete не на
// шкале - это терминальное состояние, а не точка отсчёта).
func (g Grade) IsValid() bool {
	return g.index() >= 0
}

// String возвращает строковое представление оценки.
func (g Grade) String() string {
	return string(g)
}

func (g Grade) index() int {
	for i, s := range gradeScale {
		if s == g {
			return i
		}
	}
	return -1
}

// Drop понижает оценку на steps позиций по шкале, не опускаясь ниже F.
func (g Grade) Drop(steps int) Grade {
	idx := g.index()
	if idx < 0 {
		idx = 0
	}
	idx += steps
	if idx >= len(gradeScale) {
		idx = len(gradeScale) - 1
	}
	return gradeScale[idx]
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS CALCULATOR
// ══════════════════════════════════════════════════════════════════════════════

// Порог правил посещаемости.
const (
	// maxMissableShare - допустимая доля пропусков от общего числа занятий.
	maxMissableShare = 0.2

	// freeMisses - число пропусков без понижения оценки.
	freeMisses = 4

	// incompleteThreshold - число пропусков, после которого курс не зачтён.
	incompleteThreshold = 10
)

// Metrics - производные показатели посещаемости одного курса.
// Вычисляются заново при каждом чтении журнала и нигде не хранятся.
type Metrics struct {
	// Attended - число отметок "present".
	Attended int

	// Missed - число отметок "absent".
	Missed int

	// TotalRecorded - общее число записей журнала.
	TotalRecorded int

	// Percentage - процент посещаемости (0-100, округление к ближайшему).
	// Осмыслен только при HasPercentage == true.
	Percentage int

	// HasPercentage - false при пустом журнале: "нет данных"
	// отличимо от 0%.
	HasPercentage bool

	// SessionsLeft - оставшиеся занятия: TotalSessions - TotalRecorded.
	// Не отсекается снизу: отрицательное значение сигнализирует
	// рассинхронизацию плана и журнала.
	SessionsLeft int

	// MaxMissable - допустимое число пропусков: floor(TotalSessions * 0.2).
	MaxMissable int

	// BunksLeft - оставшийся запас пропусков: MaxMissable - Missed.
	// Может быть отрицательным - лимит превышен.
	BunksLeft int

	// GradeDrops - число понижений оценки: max(0, Missed - 4).
	GradeDrops int

	// FinalGrade - прогноз итоговой оценки с учётом понижений.
	FinalGrade Grade
}

// Compute вычисляет метрики по плану занятий и журналу.
// expected - ожидаемая оценка (точка отсчёта понижений); при
// некорректном значении берётся A+.
// Возвращает ошибку валидации при totalSessions < 1 - метрики по
// некорректному плану не считаются.
func Compute(totalSessions int, entries []*Entry, expected Grade) (Metrics, error) {
	if totalSessions < 1 {
		return Metrics{}, shared.ErrInvalidTotalSessions
	}

	m := Metrics{}
	for _, e := range entries {
		switch e.Status {
		case StatusPresent:
			m.Attended++
		case StatusAbsent:
			m.Missed++
		}
	}
	m.TotalRecorded = m.Attended + m.Missed

	if m.TotalRecorded > 0 {
		m.Percentage = int(math.Round(float64(m.Attended) / float64(m.TotalRecorded) * 100))
		m.HasPercentage = true
	}

	m.SessionsLeft = totalSessions - m.TotalRecorded
	m.MaxMissable = int(math.Floor(float64(totalSessions) * maxMissableShare))
	m.BunksLeft = m.MaxMissable - m.Missed

	if m.Missed > freeMisses {
		m.GradeDrops = m.Missed - freeMisses
	}

	if !expected.IsValid() {
		expected = GradeAPlus
	}
	if m.Missed >= incompleteThreshold {
		m.FinalGrade = GradeIncomplete
	} else {
		m.FinalGrade = expected.Drop(m.GradeDrops)
	}

	return m, nil
}

// CanRecord возвращает true, если в журнал ещё можно добавить запись:
// план не исчерпан.
func (m Metrics) CanRecord() bool {
	return m.SessionsLeft > 0
}
