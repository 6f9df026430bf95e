package schedule

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrInvalidDuration  = errors.New("invalid duration")
)

const dateLayout = "2006-01-02"

// ParseDate разбирает календарную дату "YYYY-MM-DD" в полночь UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate форматирует дату как "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseTimeOfDay проверяет время суток "HH:MM" и возвращает его
// в нормализованном виде ("9:05" -> "09:05").
func ParseTimeOfDay(s string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return t.Format("15:04"), nil
}

// ParseHoursMinutes разбирает длительность "H:MM" (например "3:15")
// для ручной корректировки отработанного времени.
func ParseHoursMinutes(s string) (time.Duration, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	if d == 0 {
		return 0, fmt.Errorf("%w: duration must be positive", ErrInvalidDuration)
	}
	return d, nil
}

// MinutesBetween — длительность между отметками в минутах, с округлением
// до ближайшей минуты. Отрицательные интервалы считаются нулём.
func MinutesBetween(start, stop time.Time) int {
	ms := stop.Sub(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return int(math.Round(float64(ms) / 60000.0))
}
