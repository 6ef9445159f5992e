package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddBusinessDays(t *testing.T) {
	noHolidays := map[time.Time]bool{}

	tests := []struct {
		name     string
		start    time.Time
		days     int
		expected time.Time
	}{
		{
			name:     "пятница плюс один рабочий день это понедельник",
			start:    day(2024, time.March, 15),
			days:     1,
			expected: day(2024, time.March, 18),
		},
		{
			name:     "пятница плюс два пропускает выходные",
			start:    day(2024, time.March, 15),
			days:     2,
			expected: day(2024, time.March, 19),
		},
		{
			name:     "будни без выходных на пути",
			start:    day(2024, time.March, 11),
			days:     3,
			expected: day(2024, time.March, 14),
		},
		{
			name:     "ноль дней возвращает исходную дату",
			start:    day(2024, time.March, 15),
			days:     0,
			expected: day(2024, time.March, 15),
		},
		{
			name:     "отрицательное количество дней возвращает исходную дату",
			start:    day(2024, time.March, 15),
			days:     -3,
			expected: day(2024, time.March, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AddBusinessDays(tt.start, tt.days, noHolidays))
		})
	}
}

func TestAddBusinessDaysSkipsHolidays(t *testing.T) {
	// среда 20.03.2024 объявлена праздником
	holidays := map[time.Time]bool{
		day(2024, time.March, 20): true,
	}

	// вторник + 1 рабочий день перепрыгивает праздник на четверг
	assert.Equal(t, day(2024, time.March, 21), AddBusinessDays(day(2024, time.March, 19), 1, holidays))
}

func TestHolidaysForYear(t *testing.T) {
	holidays := HolidaysForYear(2024)

	// новогодние каникулы и День Победы
	assert.True(t, holidays[day(2024, time.January, 1)])
	assert.True(t, holidays[day(2024, time.May, 9)])

	// обычный будний день праздником не является
	assert.False(t, holidays[day(2024, time.March, 15)])

	// повторный вызов отдает кэшированное множество
	again := HolidaysForYear(2024)
	assert.Equal(t, len(holidays), len(again))
}

func TestIsWeekendOrHoliday(t *testing.T) {
	holidays := map[time.Time]bool{day(2024, time.May, 9): true}

	assert.True(t, IsWeekendOrHoliday(day(2024, time.March, 16), holidays))  // суббота
	assert.True(t, IsWeekendOrHoliday(day(2024, time.March, 17), holidays))  // воскресенье
	assert.True(t, IsWeekendOrHoliday(day(2024, time.May, 9), holidays))     // праздник
	assert.False(t, IsWeekendOrHoliday(day(2024, time.March, 15), holidays)) // пятница
}
