package schedule

import (
	"time"

	"github.com/cleanshift/core/internal/model"
)

// TimeRange представляет временной интервал [Start, End].
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// DayRange строит интервал по календарным датам: [from 00:00, to 23:59:59.999].
// Перепутанные границы меняются местами.
func DayRange(from, to time.Time) TimeRange {
	if to.Before(from) {
		from, to = to, from
	}
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999_000_000, time.UTC)
	return TimeRange{Start: start, End: end}
}

// Contains — попадает ли момент t в интервал (границы включительно).
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && !t.After(tr.End)
}

// ActivityWindow сводит записи времени одной смены к окну для отображения:
// самый ранний старт и самый поздний стоп. Это НЕ сумма минут для расчёта —
// у расчёта зарплаты своя свёртка (см. сервис отчётов). Открытая запись
// оставляет End пустым.
func ActivityWindow(logs []model.TimeLog) (start, end *time.Time) {
	open := false
	for i := range logs {
		l := &logs[i]
		if start == nil || l.StartedAt.Before(*start) {
			s := l.StartedAt
			start = &s
		}
		if l.StoppedAt == nil {
			open = true
			continue
		}
		if end == nil || l.StoppedAt.After(*end) {
			e := *l.StoppedAt
			end = &e
		}
	}
	if open {
		return start, nil
	}
	return start, end
}
