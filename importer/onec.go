package importer

import (
	"fmt"
	"log"
	"strings"
	"time"

	"invoicetracker/database"
	"invoicetracker/normalization"
)

// oneCRequiredColumns обязательные колонки выгрузки счетов из 1С
var oneCRequiredColumns = []string{
	"№ п/п",
	"Дата",
	"Номер",
	"Сумма",
	"Контрагент",
	"Ответственный",
	"Комментарий",
	"Организация",
}

// commentDropMarkers метки в комментарии, исключающие строку из импорта
var commentDropMarkers = []string{"удалить", "заглушка"}

// OneCImporter импортер счетов из выгрузки 1С
type OneCImporter struct {
	db *database.DB
}

// NewOneCImporter создает импортер счетов 1С
func NewOneCImporter(db *database.DB) *OneCImporter {
	return &OneCImporter{db: db}
}

// Run обрабатывает файл выгрузки 1С. Все принятые строки сохраняются одной
// транзакцией; ошибка уровня пакета (неполный заголовок, сбой хранилища вне
// защиты строки) откатывает весь пакет. Ошибка в отдельной строке фиксируется
// в протоколе и не прерывает обработку остальных.
func (imp *OneCImporter) Run(path string) (*OneCReport, error) {
	sheet, err := LoadSheet(path)
	if err != nil {
		return nil, err
	}
	if err := sheet.RequireColumns(oneCRequiredColumns...); err != nil {
		return nil, err
	}

	tx, err := imp.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin import transaction: %w", err)
	}

	// Справочники загружаются один раз на пакет
	stopWords, err := database.StopWordsLower(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	surnames, err := database.RPOSurnames(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	report := &OneCReport{Success: true, RowsDetail: []OneCRowDetail{}}

	for _, row := range sheet.Rows {
		imp.processRow(tx, sheet, row, stopWords, surnames, report)
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to commit import batch: %w", err)
	}

	log.Printf("[Import1C] processed %d rows, added %d", len(sheet.Rows), report.Added)
	return report, nil
}

// processRow классифицирует и при необходимости сохраняет одну строку.
// Паника или ошибка внутри строки изолируется: строка попадает в протокол
// со статусом «Ошибка», пакет продолжается.
func (imp *OneCImporter) processRow(
	tx database.Querier,
	sheet *Sheet,
	row []string,
	stopWords []string,
	surnames map[string]bool,
	report *OneCReport,
) {
	defer func() {
		if r := recover(); r != nil {
			report.RowsDetail = append(report.RowsDetail, oneCErrorDetail(fmt.Sprintf("%v", r)))
		}
	}()

	number := sheet.Cell(row, "Номер")
	invoiceDate, dateOK := normalization.ParseDate(sheet.Cell(row, "Дата"))
	amount, amountOK := normalization.ParseAmount(sheet.Cell(row, "Сумма"))
	contractorName := sheet.Cell(row, "Контрагент")
	responsible := sheet.Cell(row, "Ответственный")
	comment := sheet.Cell(row, "Комментарий")
	commentLower := strings.ToLower(comment)
	orgGroup := sheet.Cell(row, "Организация")

	// Фамилия ответственного — второй токен поля
	responsibleSurname := ""
	if parts := strings.Fields(responsible); len(parts) > 1 {
		responsibleSurname = parts[1]
	}

	outcome := newRowOutcome()

	// 1. Пустая или нулевая сумма
	if !amountOK || amount == 0 {
		outcome.exclude("Сумма = 0 или пустая")
		report.SkippedZero++
	}

	// 2. Служебные метки в комментарии
	if containsAny(commentLower, commentDropMarkers) {
		outcome.exclude("В комментарии есть 'удалить' или 'заглушка'")
		report.SkippedDelete++
	}

	// 3. Фильтр ответственных: фамилия в списке РПО либо фамилия РПО
	// упомянута в комментарии
	keep := false
	if surnames[strings.ToLower(responsibleSurname)] {
		keep = true
		outcome.note(fmt.Sprintf("Ответственный '%s' найден в списке РПО", responsibleSurname))
	} else if surnameInComment(commentLower, surnames) {
		keep = true
		outcome.note("Фамилия РПО найдена в комментарии")
	}
	if !keep {
		outcome.exclude(fmt.Sprintf("Ответственный '%s' не относится к РПО/Продажи", responsibleSurname))
		report.SkippedResponsible++
	}

	// 4. Стоп-слова: в протокол попадают все найденные
	if found := matchStopWords(commentLower, stopWords); len(found) > 0 {
		outcome.exclude(fmt.Sprintf("Найдены стоп-слова: %s", strings.Join(found, ", ")))
		report.SkippedStopWords++
	}

	// 5. Дубликат по тройке (номер, дата, сумма)
	var datePtr = dateValue(invoiceDate, dateOK)
	exists, err := database.InvoiceExists(tx, number, datePtr, amount)
	if err != nil {
		report.RowsDetail = append(report.RowsDetail, oneCErrorDetail(err.Error()))
		return
	}
	if exists {
		outcome.exclude("Дубликат (счёт с такими реквизитами уже существует)")
		report.SkippedDuplicate++
	}

	if outcome.accepted() {
		contractor, err := database.GetOrCreateContractor(tx, contractorName, "")
		if err != nil {
			report.RowsDetail = append(report.RowsDetail, oneCErrorDetail(err.Error()))
			return
		}

		invoice := &database.Invoice{
			Number:            number,
			Date:              datePtr,
			Amount:            amount,
			ContractorID:      contractor.ID,
			OrganizationGroup: orgGroup,
			ResponsibleImport: responsible,
			Comment:           comment,
			Status:            database.StatusUnpaid,
		}
		if err := database.InsertInvoice(tx, invoice); err != nil {
			report.RowsDetail = append(report.RowsDetail, oneCErrorDetail(err.Error()))
			return
		}
		report.Added++
	}

	detail := OneCRowDetail{
		Number:      number,
		Contractor:  contractorName,
		Responsible: responsible,
		Comment:     comment,
		Status:      outcome.status,
		Reasons:     outcome.reasons,
	}
	if dateOK {
		detail.Date = normalization.FormatDisplayDate(invoiceDate)
	}
	if amountOK {
		detail.Amount = &amount
	}
	report.RowsDetail = append(report.RowsDetail, detail)
}

func oneCErrorDetail(message string) OneCRowDetail {
	return OneCRowDetail{
		Status:  StatusError,
		Reasons: []string{"Ошибка обработки строки: " + message},
	}
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// surnameInComment проверяет, упомянута ли фамилия из списка допуска
// в комментарии (подстрока без учета регистра)
func surnameInComment(commentLower string, surnames map[string]bool) bool {
	if commentLower == "" {
		return false
	}
	for surname := range surnames {
		if strings.Contains(commentLower, surname) {
			return true
		}
	}
	return false
}

func matchStopWords(commentLower string, stopWords []string) []string {
	var found []string
	for _, word := range stopWords {
		if word != "" && strings.Contains(commentLower, word) {
			found = append(found, word)
		}
	}
	return found
}

// dateValue приводит результат ParseDate к nullable-представлению хранилища
func dateValue(t time.Time, ok bool) *time.Time {
	if !ok {
		return nil
	}
	return &t
}
