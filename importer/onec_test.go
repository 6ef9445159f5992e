package importer

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoicetracker/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// writeXLSX сохраняет строки во временный xlsx файл, первая строка — заголовок
func writeXLSX(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "import.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var oneCHeader = []interface{}{
	"№ п/п", "Дата", "Номер", "Сумма", "Контрагент", "Ответственный", "Комментарий", "Организация",
}

func oneCRow(number, date, amount, contractor, responsible, comment string) []interface{} {
	return []interface{}{"1", date, number, amount, contractor, responsible, comment, "Основная"}
}

func addRPOEmployee(t *testing.T, db *database.DB, lastName string) {
	t.Helper()
	require.NoError(t, db.AddEmployee(&database.Employee{
		LastName:  lastName,
		FirstName: "Иван",
	}))
}

func TestOneCImportAccepted(t *testing.T) {
	db := newTestDB(t)
	addRPOEmployee(t, db, "Петров")

	path := writeXLSX(t, [][]interface{}{
		oneCHeader,
		oneCRow("С-1", "15.03.2024", "1 000,50", `ООО "Ромашка"`, "Иван Петров", ""),
	})

	report, err := NewOneCImporter(db).Run(path)
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Added)
	require.Len(t, report.RowsDetail, 1)
	assert.Equal(t, StatusImported, report.RowsDetail[0].Status)
	assert.Contains(t, report.RowsDetail[0].Reasons, "Ответственный 'Петров' найден в списке РПО")

	invoices, err := db.ListInvoices(database.InvoiceFilter{})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "С-1", invoices[0].Number)
	assert.InDelta(t, 1000.50, invoices[0].Amount, 1e-9)
	assert.Equal(t, database.StatusUnpaid, invoices[0].Status)
	assert.Equal(t, "Ромашка ООО", invoices[0].ContractorName)
	require.NotNil(t, invoices[0].Date)
	assert.Equal(t, "2024-03-15", invoices[0].Date.Format("2006-01-02"))
}

func TestOneCImportSkipReasons(t *testing.T) {
	db := newTestDB(t)
	addRPOEmployee(t, db, "Петров")
	require.NoError(t, db.AddStopWord("аванс"))

	path := writeXLSX(t, [][]interface{}{
		oneCHeader,
		oneCRow("С-1", "15.03.2024", "0", "ООО Ромашка", "Иван Петров", ""),
		oneCRow("С-2", "15.03.2024", "500", "ООО Ромашка", "Иван Петров", "просьба удалить"),
		oneCRow("С-3", "15.03.2024", "500", "ООО Ромашка", "Анна Сидорова", ""),
		oneCRow("С-4", "15.03.2024", "500", "ООО Ромашка", "Иван Петров", "аванс за март"),
	})

	report, err := NewOneCImporter(db).Run(path)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 1, report.SkippedZero)
	assert.Equal(t, 1, report.SkippedDelete)
	assert.Equal(t, 1, report.SkippedResponsible)
	assert.Equal(t, 1, report.SkippedStopWords)
	require.Len(t, report.RowsDetail, 4)

	assert.Contains(t, report.RowsDetail[0].Reasons, "Сумма = 0 или пустая")
	assert.Contains(t, report.RowsDetail[1].Reasons, "В комментарии есть 'удалить' или 'заглушка'")
	assert.Contains(t, report.RowsDetail[2].Reasons, "Ответственный 'Сидорова' не относится к РПО/Продажи")
	assert.Contains(t, report.RowsDetail[3].Reasons, "Найдены стоп-слова: аванс")
	for _, detail := range report.RowsDetail {
		assert.Equal(t, StatusSkipped, detail.Status)
	}

	invoices, err := db.ListInvoices(database.InvoiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

// Статус понижается первой причиной, но протокол накапливает все основания
func TestOneCImportAccumulatesReasons(t *testing.T) {
	db := newTestDB(t)
	addRPOEmployee(t, db, "Петров")
	require.NoError(t, db.AddStopWord("аванс"))

	path := writeXLSX(t, [][]interface{}{
		oneCHeader,
		oneCRow("С-1", "15.03.2024", "0", "ООО Ромашка", "Иван Петров", "аванс"),
	})

	report, err := NewOneCImporter(db).Run(path)
	require.NoError(t, err)

	assert.Equal(t, 1, report.SkippedZero)
	assert.Equal(t, 1, report.SkippedStopWords)
	require.Len(t, report.RowsDetail, 1)

	detail := report.RowsDetail[0]
	assert.Equal(t, StatusSkipped, detail.Status)
	assert.Contains(t, detail.Reasons, "Сумма = 0 или пустая")
	assert.Contains(t, detail.Reasons, "Найдены стоп-слова: аванс")
}

// Фамилия РПО в комментарии оставляет строку, даже если ответственный чужой
func TestOneCImportSurnameInComment(t *testing.T) {
	db := newTestDB(t)
	addRPOEmployee(t, db, "Петров")

	path := writeXLSX(t, [][]interface{}{
		oneCHeader,
		oneCRow("С-1", "15.03.2024", "500", "ООО Ромашка", "Анна Сидорова", "передать Петрову"),
	})

	report, err := NewOneCImporter(db).Run(path)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Added)
	require.Len(t, report.RowsDetail, 1)
	assert.Contains(t, report.RowsDetail[0].Reasons, "Фамилия РПО найдена в комментарии")
}

// Повторный импорт того же файла не добавляет ни одного счета
func TestOneCImportIdempotent(t *testing.T) {
	db := newTestDB(t)
	addRPOEmployee(t, db, "Петров")

	path := writeXLSX(t, [][]interface{}{
		oneCHeader,
		oneCRow("С-1", "15.03.2024", "1000", "ООО Ромашка", "Иван Петров", ""),
		oneCRow("С-2", "16.03.2024", "2000", "ООО Ромашка", "Иван Петров", ""),
	})

	importer := NewOneCImporter(db)

	first, err := importer.Run(path)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Added)

	second, err := importer.Run(path)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 2, second.SkippedDuplicate)
	for _, detail := range second.RowsDetail {
		assert.Contains(t, detail.Reasons, "Дубликат (счёт с такими реквизитами уже существует)")
	}

	invoices, err := db.ListInvoices(database.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, invoices, 2)
}

// Дубликат внутри одного файла тоже отсеивается
func TestOneCImportDuplicateInBatch(t *testing.T) {
	db := newTestDB(t)
	addRPOEmployee(t, db, "Петров")

	path := writeXLSX(t, [][]interface{}{
		oneCHeader,
		oneCRow("С-1", "15.03.2024", "1000", "ООО Ромашка", "Иван Петров", ""),
		oneCRow("С-1", "15.03.2024", "1000", "ООО Ромашка", "Иван Петров", ""),
	})

	report, err := NewOneCImporter(db).Run(path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.SkippedDuplicate)
}

// Неполный заголовок прерывает импорт до обработки строк
func TestOneCImportMissingColumn(t *testing.T) {
	db := newTestDB(t)
	addRPOEmployee(t, db, "Петров")

	path := writeXLSX(t, [][]interface{}{
		{"№ п/п", "Дата", "Номер", "Сумма", "Контрагент", "Ответственный", "Комментарий"},
		{"1", "15.03.2024", "С-1", "1000", "ООО Ромашка", "Иван Петров", ""},
	})

	report, err := NewOneCImporter(db).Run(path)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, "Missing column: Организация", err.Error())

	invoices, err := db.ListInvoices(database.InvoiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestOneCImportBulk(t *testing.T) {
	db := newTestDB(t)
	addRPOEmployee(t, db, "Петров")
	gofakeit.Seed(42)

	rows := [][]interface{}{oneCHeader}
	for i := 0; i < 25; i++ {
		rows = append(rows, oneCRow(
			fmt.Sprintf("С-%d", i+1),
			"15.03.2024",
			fmt.Sprintf("%.2f", gofakeit.Price(100, 100000)),
			gofakeit.Company(),
			"Иван Петров",
			"",
		))
	}

	report, err := NewOneCImporter(db).Run(writeXLSX(t, rows))
	require.NoError(t, err)
	assert.Equal(t, 25, report.Added)

	invoices, err := db.ListInvoices(database.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, invoices, 25)
}
