// Package period содержит арифметику временных корзин для трендов панели управления.
//
// Гранулярность выбирается по длине диапазона: до 48 часов — час,
// до 92 дней — день, дальше — месяц. Корзины генерируются в часовом
// поясе запроса, ключи корзин совпадают с ключами SQL-агрегата
// (date_trunc в том же поясе), за счёт чего слияние происходит по строкам.
package period

import (
	"fmt"
	"time"
)

// Granularity размер корзины временного ряда.
type Granularity string

const (
	// GranularityHour почасовые корзины для коротких диапазонов.
	GranularityHour Granularity = "hour"
	// GranularityDay дневные корзины.
	GranularityDay Granularity = "day"
	// GranularityMonth месячные корзины для длинных диапазонов.
	GranularityMonth Granularity = "month"
)

// Пороги выбора гранулярности.
const (
	hourRangeMax = 48 * time.Hour
	dayRangeMax  = 92 * 24 * time.Hour
)

// Pick выбирает гранулярность по длине диапазона [start, end).
func Pick(start, end time.Time) Granularity {
	switch d := end.Sub(start); {
	case d <= hourRangeMax:
		return GranularityHour
	case d <= dayRangeMax:
		return GranularityDay
	default:
		return GranularityMonth
	}
}

// Truncate усекает момент времени до начала корзины в поясе loc.
func Truncate(t time.Time, g Granularity, loc *time.Location) time.Time {
	t = t.In(loc)
	switch g {
	case GranularityHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	}
}

// Next возвращает начало следующей корзины.
// Сложение через календарные функции, а не через Add: в поясах
// с переводом часов день не всегда длится 24 часа.
func Next(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityHour:
		return t.Add(time.Hour)
	case GranularityDay:
		return t.AddDate(0, 0, 1)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Key форматирует начало корзины в строковый ключ.
// Формат обязан совпадать с to_char в SQL-агрегате панели.
func Key(t time.Time, g Granularity) string {
	switch g {
	case GranularityHour:
		return t.Format("2006-01-02 15:00")
	case GranularityDay:
		return t.Format("2006-01-02")
	default:
		return t.Format("2006-01")
	}
}

// SQLFormat возвращает шаблон to_char для гранулярности.
func SQLFormat(g Granularity) string {
	switch g {
	case GranularityHour:
		return "YYYY-MM-DD HH24:00"
	case GranularityDay:
		return "YYYY-MM-DD"
	default:
		return "YYYY-MM"
	}
}

// Keys генерирует ключи всех корзин диапазона [start, end) по порядку.
// Возвращает ошибку, если порядок границ нарушен или диапазон пуст.
func Keys(start, end time.Time, g Granularity, loc *time.Location) ([]string, error) {
	const op = "period.Keys"
	if !start.Before(end) {
		return nil, fmt.Errorf("%s: start must be before end", op)
	}

	var keys []string
	for t := Truncate(start, g, loc); t.Before(end.In(loc)); t = Next(t, g) {
		keys = append(keys, Key(t, g))
	}
	return keys, nil
}
