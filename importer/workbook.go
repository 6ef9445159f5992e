// Package importer загружает счета и акты из табличных выгрузок 1С и СБИС.
// Каждая строка проходит через классификатор, накапливающий все причины
// отсева, и попадает в протокол импорта независимо от исхода.
package importer

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet лист выгрузки: карта колонок по тексту заголовка и строки данных.
// Колонки разрешаются один раз на пакет, по точному совпадению заголовка.
type Sheet struct {
	columns map[string]int
	Rows    [][]string
}

// LoadSheet открывает файл выгрузки и читает первый лист. Первая строка
// листа считается заголовком, данные начинаются со второй.
func LoadSheet(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	sheet := &Sheet{columns: make(map[string]int)}
	if len(rows) == 0 {
		return sheet, nil
	}

	for i, header := range rows[0] {
		header = strings.TrimSpace(header)
		if header != "" {
			sheet.columns[header] = i
		}
	}
	sheet.Rows = rows[1:]

	return sheet, nil
}

// RequireColumns проверяет наличие обязательных колонок до обработки строк.
// Возвращает ошибку по первой отсутствующей колонке: пакет с неполным
// заголовком отклоняется целиком.
func (s *Sheet) RequireColumns(names ...string) error {
	for _, name := range names {
		if _, ok := s.columns[name]; !ok {
			return fmt.Errorf("Missing column: %s", name)
		}
	}
	return nil
}

// Cell возвращает значение ячейки по тексту заголовка, пустую строку —
// если колонка отсутствует или строка короче.
func (s *Sheet) Cell(row []string, header string) string {
	idx, ok := s.columns[header]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
