package importer

// Статусы строки в протоколе импорта
const (
	StatusImported = "Импортирован"
	StatusSkipped  = "Пропущен"
	StatusError    = "Ошибка"
)

// rowOutcome исход классификации одной строки. Статус понижается до
// «Пропущен» первой причиной отсева, но проверки продолжаются: протокол
// должен показывать все основания, а не только первое.
type rowOutcome struct {
	status  string
	reasons []string
}

func newRowOutcome() *rowOutcome {
	return &rowOutcome{status: StatusImported, reasons: []string{}}
}

// exclude переводит строку в «Пропущен» и записывает причину
func (o *rowOutcome) exclude(reason string) {
	if o.status == StatusImported {
		o.status = StatusSkipped
	}
	o.reasons = append(o.reasons, reason)
}

// note записывает причину без изменения статуса (например, по какому
// правилу строка прошла фильтр ответственных)
func (o *rowOutcome) note(reason string) {
	o.reasons = append(o.reasons, reason)
}

func (o *rowOutcome) accepted() bool {
	return o.status == StatusImported
}

// OneCRowDetail строка протокола импорта 1С
type OneCRowDetail struct {
	Number      string   `json:"number"`
	Date        string   `json:"date"`
	Amount      *float64 `json:"amount"`
	Contractor  string   `json:"contractor"`
	Responsible string   `json:"responsible"`
	Comment     string   `json:"comment"`
	Status      string   `json:"status"`
	Reasons     []string `json:"reasons"`
}

// OneCReport результат импорта выгрузки 1С
type OneCReport struct {
	Success            bool            `json:"success"`
	Added              int             `json:"added"`
	SkippedZero        int             `json:"skipped_zero"`
	SkippedDelete      int             `json:"skipped_delete"`
	SkippedResponsible int             `json:"skipped_responsible"`
	SkippedStopWords   int             `json:"skipped_stopwords"`
	SkippedDuplicate   int             `json:"skipped_duplicate"`
	RowsDetail         []OneCRowDetail `json:"rows_detail"`
}

// SBISRowDetail строка протокола импорта СБИС. Поле Status — статус
// документа из выгрузки, ImportStatus — исход классификации.
type SBISRowDetail struct {
	Number       string   `json:"number"`
	Date         string   `json:"date"`
	Amount       *float64 `json:"amount"`
	Contractor   string   `json:"contractor"`
	INN          string   `json:"inn"`
	Filename     string   `json:"filename"`
	DocType      string   `json:"doc_type"`
	PackageType  string   `json:"package_type"`
	Status       string   `json:"status"`
	ImportStatus string   `json:"import_status"`
	Reasons      []string `json:"reasons"`
}

// SBISReport результат импорта выгрузки СБИС
type SBISReport struct {
	Success          bool            `json:"success"`
	Added            int             `json:"added"`
	SkippedStatus    int             `json:"skipped_status"`
	SkippedType      int             `json:"skipped_type"`
	SkippedEmpty     int             `json:"skipped_empty"`
	SkippedDuplicate int             `json:"skipped_duplicate"`
	RowsDetail       []SBISRowDetail `json:"rows_detail"`
}
