// Package calendar вычисляет сроки в рабочих днях с учетом выходных
// и государственных праздников России.
package calendar

import (
	"sync"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/ru"
)

// holidayCalendar производственный календарь РФ. Таблицы праздников
// детерминированы, поэтому кэш по годам живет весь процесс и не вытесняется.
var (
	holidayCalendar = newRussiaCalendar()

	cacheMu       sync.Mutex
	holidaysCache = make(map[int]map[time.Time]bool)
)

func newRussiaCalendar() *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(ru.Holidays...)
	return c
}

// HolidaysForYear возвращает множество праздничных дат указанного года.
// Результат кэшируется на весь жизненный цикл процесса.
func HolidaysForYear(year int) map[time.Time]bool {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := holidaysCache[year]; ok {
		return cached
	}

	holidays := make(map[time.Time]bool)
	day := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for day.Year() == year {
		if actual, _, _ := holidayCalendar.IsHoliday(day); actual {
			holidays[day] = true
		}
		day = day.AddDate(0, 0, 1)
	}

	holidaysCache[year] = holidays
	return holidays
}

// normalizeDay отбрасывает время, оставляя календарную дату в UTC.
func normalizeDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsWeekendOrHoliday сообщает, является ли дата выходным или праздником.
func IsWeekendOrHoliday(day time.Time, holidays map[time.Time]bool) bool {
	wd := day.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return true
	}
	return holidays[normalizeDay(day)]
}

// AddBusinessDays прибавляет к дате заданное количество рабочих дней,
// пропуская выходные и праздники. Для days <= 0 возвращает исходную дату
// без изменений — семантика отрицательных сроков не определена.
func AddBusinessDays(start time.Time, days int, holidays map[time.Time]bool) time.Time {
	if days <= 0 {
		return start
	}

	current := normalizeDay(start)
	added := 0
	for added < days {
		current = current.AddDate(0, 0, 1)
		if !IsWeekendOrHoliday(current, holidays) {
			added++
		}
	}
	return current
}
