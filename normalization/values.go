package normalization

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// excelEpoch начало отсчета порядковых дат Excel (день 0 = 30.12.1899).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts форматы дат в порядке перебора. Варианты со временем идут
// первыми, иначе "02.01.2006" обрезал бы строку с хвостом времени.
var dateLayouts = []string{
	"02.01.2006 15:04",
	"02.01.2006 15:04:05",
	"02.01.06 15:04",
	"02.01.06 15:04:05",
	"15:04 02.01.2006",
	"15:04:05 02.01.2006",
	"15:04 02.01.06",
	"15:04:05 02.01.06",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02.01.2006",
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

// ParseDate разбирает значение ячейки в дату. Принимает строку в одном из
// поддерживаемых форматов, порядковый номер дня Excel (число дней от
// 30.12.1899, дробная часть отбрасывается), time.Time или *time.Time.
// Функция тотальна: при любом входе возвращает (дата, true) либо
// (нулевое время, false), но никогда не паникует.
func ParseDate(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case int:
		return serialDate(float64(v))
	case int64:
		return serialDate(float64(v))
	case float64:
		return serialDate(v)
	case string:
		return parseDateString(v)
	default:
		return time.Time{}, false
	}
}

func serialDate(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, false
	}
	days := int(serial)
	if days <= 0 || days > 1_000_000 {
		return time.Time{}, false
	}
	return excelEpoch.AddDate(0, 0, days), true
}

func parseDateString(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	// Числовая строка трактуется как порядковый день Excel
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return serialDate(serial)
	}

	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}

	return time.Time{}, false
}

// ParseAmount разбирает значение ячейки в сумму. Пробелы (включая
// неразрывные) считаются разделителями тысяч, запятая — десятичным
// разделителем. Возвращает (0, false) для пустого или нечислового входа.
func ParseAmount(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		cleaned := strings.NewReplacer(" ", "", " ", "", ",", ".").Replace(strings.TrimSpace(v))
		if cleaned == "" {
			return 0, false
		}
		amount, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return amount, true
	default:
		return 0, false
	}
}

// FormatDisplayDate форматирует дату для отображения пользователю (ДД.ММ.ГГГГ).
// Нулевая дата отображается пустой строкой.
func FormatDisplayDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}

// FormatISODate форматирует дату для хранения и обмена (ГГГГ-ММ-ДД).
func FormatISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
