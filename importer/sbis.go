package importer

import (
	"fmt"
	"log"
	"strings"

	"invoicetracker/database"
	"invoicetracker/normalization"
)

// sbisRequiredColumns обязательные колонки выгрузки документов из СБИС
var sbisRequiredColumns = []string{
	"Тип документа",
	"Тип пакета",
	"Статус",
	"Сумма",
	"Завершено",
	"Номер",
	"Контрагент",
	"ИНН/КПП",
	"Имя файла",
}

// Коды документов СБИС: счет внутри пакета принимается только вместе
// с исходящим документом отгрузки.
const (
	sbisDocTypeInvoice      = "ЭДОСч"
	sbisPackageTypeOutgoing = "ДокОтгрИсх"
	sbisStatusCompleted     = "Выполнение завершено успешно"
)

// SBISImporter импортер актов из выгрузки СБИС
type SBISImporter struct {
	db *database.DB
}

// NewSBISImporter создает импортер актов СБИС
func NewSBISImporter(db *database.DB) *SBISImporter {
	return &SBISImporter{db: db}
}

// Run обрабатывает файл выгрузки СБИС. Транзакционная семантика та же, что
// у импорта 1С: пакет фиксируется целиком, ошибка отдельной строки
// изолируется, ошибка уровня пакета откатывает все.
func (imp *SBISImporter) Run(path string) (*SBISReport, error) {
	sheet, err := LoadSheet(path)
	if err != nil {
		return nil, err
	}
	if err := sheet.RequireColumns(sbisRequiredColumns...); err != nil {
		return nil, err
	}

	tx, err := imp.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin import transaction: %w", err)
	}

	report := &SBISReport{Success: true, RowsDetail: []SBISRowDetail{}}

	for _, row := range sheet.Rows {
		imp.processRow(tx, sheet, row, report)
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to commit import batch: %w", err)
	}

	log.Printf("[ImportSBIS] processed %d rows, added %d", len(sheet.Rows), report.Added)
	return report, nil
}

func (imp *SBISImporter) processRow(tx database.Querier, sheet *Sheet, row []string, report *SBISReport) {
	defer func() {
		if r := recover(); r != nil {
			report.RowsDetail = append(report.RowsDetail, sbisErrorDetail(fmt.Sprintf("%v", r)))
		}
	}()

	docType := sheet.Cell(row, "Тип документа")
	packageType := sheet.Cell(row, "Тип пакета")
	status := sheet.Cell(row, "Статус")
	amount, amountOK := normalization.ParseAmount(sheet.Cell(row, "Сумма"))
	signingDate, dateOK := normalization.ParseDate(sheet.Cell(row, "Завершено"))
	number := sheet.Cell(row, "Номер")
	contractorName := sheet.Cell(row, "Контрагент")
	innKPP := sheet.Cell(row, "ИНН/КПП")
	filename := sheet.Cell(row, "Имя файла")

	// ИНН — часть комбинированного поля до первого "/"
	inn := ""
	if innKPP != "" {
		inn = strings.SplitN(innKPP, "/", 2)[0]
	}

	outcome := newRowOutcome()

	// 1. Счет без исходящего документа отгрузки не принимается
	if docType == sbisDocTypeInvoice && packageType != sbisPackageTypeOutgoing {
		outcome.exclude(fmt.Sprintf("Тип документа: %s", docType))
		report.SkippedType++
	}

	// 2. Документооборот должен быть завершен успешно
	if status != sbisStatusCompleted {
		outcome.exclude(fmt.Sprintf("Статус документа: '%s' (ожидается '%s')", status, sbisStatusCompleted))
		report.SkippedStatus++
	}

	// 3. Пустая или нулевая сумма
	if !amountOK || amount == 0 {
		outcome.exclude("Сумма = 0 или пустая")
		report.SkippedEmpty++
	}

	// 4. Пустая дата подписания
	if !dateOK {
		outcome.exclude("Дата подписания (Завершено) пустая")
		report.SkippedEmpty++
	}

	// 5. Дубликат по тройке (номер, дата подписания, сумма)
	datePtr := dateValue(signingDate, dateOK)
	exists, err := database.ActExists(tx, number, datePtr, amount)
	if err != nil {
		report.RowsDetail = append(report.RowsDetail, sbisErrorDetail(err.Error()))
		return
	}
	if exists {
		outcome.exclude("Дубликат (акт с такими реквизитами уже существует)")
		report.SkippedDuplicate++
	}

	if outcome.accepted() {
		contractor, err := database.GetOrCreateContractor(tx, contractorName, inn)
		if err != nil {
			report.RowsDetail = append(report.RowsDetail, sbisErrorDetail(err.Error()))
			return
		}

		act := &database.Act{
			Number:       number,
			Filename:     filename,
			SigningDate:  datePtr,
			Amount:       amount,
			ContractorID: contractor.ID,
		}
		if err := database.InsertAct(tx, act); err != nil {
			report.RowsDetail = append(report.RowsDetail, sbisErrorDetail(err.Error()))
			return
		}
		report.Added++
	}

	detail := SBISRowDetail{
		Number:       number,
		Contractor:   contractorName,
		INN:          inn,
		Filename:     filename,
		DocType:      docType,
		PackageType:  packageType,
		Status:       status,
		ImportStatus: outcome.status,
		Reasons:      outcome.reasons,
	}
	if dateOK {
		detail.Date = normalization.FormatDisplayDate(signingDate)
	}
	if amountOK {
		detail.Amount = &amount
	}
	report.RowsDetail = append(report.RowsDetail, detail)
}

func sbisErrorDetail(message string) SBISRowDetail {
	return SBISRowDetail{
		ImportStatus: StatusError,
		Reasons:      []string{"Ошибка обработки строки: " + message},
	}
}
