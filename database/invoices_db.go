package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// StatusUnpaid статус счета по умолчанию, StatusPaid — оплаченного.
const (
	StatusUnpaid = "Не оплачен"
	StatusPaid   = "Оплачен"
)

// Invoice счет на оплату
type Invoice struct {
	ID                int64      `json:"id"`
	CreatedAt         time.Time  `json:"created_at"`
	Number            string     `json:"number"`
	Date              *time.Time `json:"date"`
	Amount            float64    `json:"amount"`
	ContractorID      int64      `json:"contractor_id"`
	OrganizationGroup string     `json:"organization_group"`
	ResponsibleImport string     `json:"responsible_import"`
	Comment           string     `json:"comment"`
	Deadline          *time.Time `json:"deadline"`
	DeadlineDays      *int       `json:"deadline_days"`
	PaymentDate       *time.Time `json:"payment_date"`
	MotivatedPerson   string     `json:"motivated_person"`
	Status            string     `json:"status"`
}

// InvoiceExists проверяет наличие счета с такими же реквизитами.
// Ключ дедупликации — тройка (номер, дата, сумма); сумма сравнивается
// на точное равенство, допусков нет.
func InvoiceExists(q Querier, number string, date *time.Time, amount float64) (bool, error) {
	var id int64
	err := q.QueryRow(
		`SELECT id FROM invoices WHERE number = ? AND COALESCE(date, '') = ? AND amount = ? LIMIT 1`,
		number, nullString(formatDate(date)), amount,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check invoice duplicate: %w", err)
	}
	return true, nil
}

// InsertInvoice сохраняет новый счет и проставляет его идентификатор
func InsertInvoice(q Querier, inv *Invoice) error {
	if inv.Status == "" {
		inv.Status = StatusUnpaid
	}

	result, err := q.Exec(
		`INSERT INTO invoices (number, date, amount, contractor_id, organization_group,
			responsible_import, comment, deadline, deadline_days, payment_date, motivated_person, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.Number, formatDate(inv.Date), inv.Amount, inv.ContractorID,
		toNullString(inv.OrganizationGroup), toNullString(inv.ResponsibleImport), toNullString(inv.Comment),
		formatDate(inv.Deadline), inv.DeadlineDays, formatDate(inv.PaymentDate),
		toNullString(inv.MotivatedPerson), inv.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invoice %q: %w", inv.Number, err)
	}

	inv.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get invoice id: %w", err)
	}
	return nil
}

const invoiceColumns = `id, created_at, number, date, amount, contractor_id, organization_group,
	responsible_import, comment, deadline, deadline_days, payment_date, motivated_person, status`

func scanInvoice(scanner interface{ Scan(...interface{}) error }) (*Invoice, error) {
	var inv Invoice
	var date, orgGroup, responsible, comment, deadline, paymentDate, motivated sql.NullString
	var deadlineDays sql.NullInt64
	err := scanner.Scan(
		&inv.ID, &inv.CreatedAt, &inv.Number, &date, &inv.Amount, &inv.ContractorID,
		&orgGroup, &responsible, &comment, &deadline, &deadlineDays, &paymentDate,
		&motivated, &inv.Status,
	)
	if err != nil {
		return nil, err
	}
	inv.Date = scanDate(date)
	inv.OrganizationGroup = nullString(orgGroup)
	inv.ResponsibleImport = nullString(responsible)
	inv.Comment = nullString(comment)
	inv.Deadline = scanDate(deadline)
	inv.PaymentDate = scanDate(paymentDate)
	inv.MotivatedPerson = nullString(motivated)
	if deadlineDays.Valid {
		days := int(deadlineDays.Int64)
		inv.DeadlineDays = &days
	}
	return &inv, nil
}

// GetInvoice возвращает счет по идентификатору или nil, если он не найден
func (db *DB) GetInvoice(id int64) (*Invoice, error) {
	inv, err := scanInvoice(db.conn.QueryRow(
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice %d: %w", id, err)
	}
	return inv, nil
}

// InvoiceUpdate изменяемые вручную поля счета. Nil означает
// «не трогать текущее значение».
type InvoiceUpdate struct {
	PaymentDate     *time.Time
	Deadline        *time.Time
	MotivatedPerson *string
}

// UpdateInvoice применяет частичное обновление счета.
// Возвращает false, если счет не найден.
func (db *DB) UpdateInvoice(id int64, upd InvoiceUpdate) (bool, error) {
	setClauses := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)

	if upd.PaymentDate != nil {
		setClauses = append(setClauses, "payment_date = ?")
		args = append(args, formatDate(upd.PaymentDate))
	}
	if upd.Deadline != nil {
		setClauses = append(setClauses, "deadline = ?")
		args = append(args, formatDate(upd.Deadline))
	}
	if upd.MotivatedPerson != nil {
		setClauses = append(setClauses, "motivated_person = ?")
		args = append(args, toNullString(*upd.MotivatedPerson))
	}

	if len(setClauses) == 0 {
		return true, nil
	}

	args = append(args, id)
	result, err := db.conn.Exec(
		`UPDATE invoices SET `+strings.Join(setClauses, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update invoice %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SetInvoiceDeadline сохраняет рассчитанный срок оплаты и горизонт в рабочих днях
func (db *DB) SetInvoiceDeadline(id int64, deadline time.Time, days int) error {
	_, err := db.conn.Exec(
		`UPDATE invoices SET deadline = ?, deadline_days = ? WHERE id = ?`,
		deadline.Format(dateLayout), days, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set invoice deadline: %w", err)
	}
	return nil
}

// DeleteInvoice удаляет счет. Возвращает false, если он не найден.
// Привязанные акты не удаляются, а становятся свободными.
func (db *DB) DeleteInvoice(id int64) (bool, error) {
	if _, err := db.conn.Exec(`UPDATE acts SET invoice_id = NULL WHERE invoice_id = ?`, id); err != nil {
		return false, fmt.Errorf("failed to unlink acts of invoice %d: %w", id, err)
	}
	result, err := db.conn.Exec(`DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete invoice %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// InvoiceFilter параметры списка счетов
type InvoiceFilter struct {
	ContractorID    int64
	MotivatedPerson string
	PaymentDateFrom *time.Time
	PaymentDateTo   *time.Time
	SortBy          string
	SortDir         string
}

// InvoiceListItem строка списка счетов с данными контрагента и счетчиками актов
type InvoiceListItem struct {
	Invoice
	ContractorName string  `json:"contractor_name"`
	ContractorINN  string  `json:"contractor_inn"`
	ActsCount      int     `json:"acts_count"`
	ActsSum        float64 `json:"acts_sum"`
	FreeActsCount  int     `json:"free_acts_count"`
}

// invoiceSortColumns допустимые колонки сортировки списка счетов.
// Значения — SQL-выражения, подстановка пользовательского ввода в ORDER BY
// не допускается.
var invoiceSortColumns = map[string]string{
	"date":               "i.date",
	"deadline":           "i.deadline",
	"contractor_name":    "c.name",
	"contractor_inn":     "c.inn",
	"responsible_import": "i.responsible_import",
	"motivated_person":   "i.motivated_person",
	"payment_date":       "i.payment_date",
}

// ListInvoices возвращает счета с фильтрацией и сортировкой. Счета без даты
// оплаты всегда идут в конце. Сортировка по числу актов выполняется после
// выборки, когда счетчики уже посчитаны.
func (db *DB) ListInvoices(filter InvoiceFilter) ([]*InvoiceListItem, error) {
	query := `SELECT i.id, i.created_at, i.number, i.date, i.amount, i.contractor_id,
		i.organization_group, i.responsible_import, i.comment, i.deadline, i.deadline_days,
		i.payment_date, i.motivated_person, i.status, c.name, c.inn
		FROM invoices i
		LEFT JOIN contractors c ON c.id = i.contractor_id`

	var conditions []string
	var args []interface{}

	if filter.ContractorID > 0 {
		conditions = append(conditions, "i.contractor_id = ?")
		args = append(args, filter.ContractorID)
	}
	if filter.MotivatedPerson != "" {
		conditions = append(conditions, "i.motivated_person = ?")
		args = append(args, filter.MotivatedPerson)
	}
	if filter.PaymentDateFrom != nil {
		conditions = append(conditions, "i.payment_date >= ?")
		args = append(args, filter.PaymentDateFrom.Format(dateLayout))
	}
	if filter.PaymentDateTo != nil {
		conditions = append(conditions, "i.payment_date <= ?")
		args = append(args, filter.PaymentDateTo.Format(dateLayout))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	countSort := filter.SortBy == "acts_count" || filter.SortBy == "free_acts_count"
	if !countSort {
		sortColumn, ok := invoiceSortColumns[filter.SortBy]
		if !ok {
			sortColumn = invoiceSortColumns["deadline"]
		}
		direction := "ASC"
		if filter.SortDir == "desc" {
			direction = "DESC"
		}
		query += ` ORDER BY (i.payment_date IS NULL OR i.payment_date = '') ASC, ` +
			sortColumn + " " + direction
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var items []*InvoiceListItem
	for rows.Next() {
		var item InvoiceListItem
		var date, orgGroup, responsible, comment, deadline, paymentDate, motivated sql.NullString
		var deadlineDays sql.NullInt64
		var contractorName, contractorINN sql.NullString
		if err := rows.Scan(
			&item.ID, &item.CreatedAt, &item.Number, &date, &item.Amount, &item.ContractorID,
			&orgGroup, &responsible, &comment, &deadline, &deadlineDays, &paymentDate,
			&motivated, &item.Status, &contractorName, &contractorINN,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		item.Date = scanDate(date)
		item.OrganizationGroup = nullString(orgGroup)
		item.ResponsibleImport = nullString(responsible)
		item.Comment = nullString(comment)
		item.Deadline = scanDate(deadline)
		item.PaymentDate = scanDate(paymentDate)
		item.MotivatedPerson = nullString(motivated)
		if deadlineDays.Valid {
			days := int(deadlineDays.Int64)
			item.DeadlineDays = &days
		}
		item.ContractorName = nullString(contractorName)
		item.ContractorINN = nullString(contractorINN)
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := db.fillActCounters(items); err != nil {
		return nil, err
	}

	if countSort {
		key := func(item *InvoiceListItem) int {
			if filter.SortBy == "acts_count" {
				return item.ActsCount
			}
			return item.FreeActsCount
		}
		desc := filter.SortDir == "desc"
		sort.SliceStable(items, func(a, b int) bool {
			if desc {
				return key(items[a]) > key(items[b])
			}
			return key(items[a]) < key(items[b])
		})
	}

	return items, nil
}

// fillActCounters заполняет счетчики привязанных и свободных актов
// двумя групповыми запросами вместо запроса на каждый счет.
func (db *DB) fillActCounters(items []*InvoiceListItem) error {
	if len(items) == 0 {
		return nil
	}

	linkedRows, err := db.conn.Query(
		`SELECT invoice_id, COUNT(*), COALESCE(SUM(amount), 0)
		 FROM acts WHERE invoice_id IS NOT NULL GROUP BY invoice_id`)
	if err != nil {
		return fmt.Errorf("failed to count linked acts: %w", err)
	}
	defer linkedRows.Close()

	type actStats struct {
		count int
		sum   float64
	}
	linked := make(map[int64]actStats)
	for linkedRows.Next() {
		var invoiceID int64
		var stats actStats
		if err := linkedRows.Scan(&invoiceID, &stats.count, &stats.sum); err != nil {
			return fmt.Errorf("failed to scan act counters: %w", err)
		}
		linked[invoiceID] = stats
	}
	if err := linkedRows.Err(); err != nil {
		return err
	}

	freeRows, err := db.conn.Query(
		`SELECT contractor_id, COUNT(*) FROM acts WHERE invoice_id IS NULL GROUP BY contractor_id`)
	if err != nil {
		return fmt.Errorf("failed to count free acts: %w", err)
	}
	defer freeRows.Close()

	free := make(map[int64]int)
	for freeRows.Next() {
		var contractorID int64
		var count int
		if err := freeRows.Scan(&contractorID, &count); err != nil {
			return fmt.Errorf("failed to scan free act counters: %w", err)
		}
		free[contractorID] = count
	}
	if err := freeRows.Err(); err != nil {
		return err
	}

	for _, item := range items {
		stats := linked[item.ID]
		item.ActsCount = stats.count
		item.ActsSum = stats.sum
		item.FreeActsCount = free[item.ContractorID]
	}
	return nil
}
