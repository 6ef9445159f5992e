package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Act подписанный акт выполненных работ. Может быть привязан не более чем
// к одному счету; привязка обязана ссылаться на существующий счет (FK).
type Act struct {
	ID                 int64      `json:"id"`
	CreatedAt          time.Time  `json:"created_at"`
	Number             string     `json:"number"`
	Filename           string     `json:"filename"`
	SigningDate        *time.Time `json:"signing_date"`
	Amount             float64    `json:"amount"`
	ContractorID       int64      `json:"contractor_id"`
	InvoiceID          *int64     `json:"invoice_id"`
	ResponsibleManager string     `json:"responsible_manager"`
}

// ActExists проверяет наличие акта с такими же реквизитами.
// Ключ дедупликации — тройка (номер, дата подписания, сумма),
// сумма сравнивается на точное равенство.
func ActExists(q Querier, number string, signingDate *time.Time, amount float64) (bool, error) {
	var id int64
	err := q.QueryRow(
		`SELECT id FROM acts WHERE number = ? AND COALESCE(signing_date, '') = ? AND amount = ? LIMIT 1`,
		number, nullString(formatDateTime(signingDate)), amount,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check act duplicate: %w", err)
	}
	return true, nil
}

// InsertAct сохраняет новый акт и проставляет его идентификатор
func InsertAct(q Querier, act *Act) error {
	result, err := q.Exec(
		`INSERT INTO acts (number, filename, signing_date, amount, contractor_id, invoice_id, responsible_manager)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		act.Number, toNullString(act.Filename), formatDateTime(act.SigningDate),
		act.Amount, act.ContractorID, act.InvoiceID, toNullString(act.ResponsibleManager),
	)
	if err != nil {
		return fmt.Errorf("failed to insert act %q: %w", act.Number, err)
	}

	act.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get act id: %w", err)
	}
	return nil
}

func scanAct(scanner interface{ Scan(...interface{}) error }) (*Act, error) {
	var act Act
	var filename, signingDate, responsible sql.NullString
	var invoiceID sql.NullInt64
	err := scanner.Scan(
		&act.ID, &act.CreatedAt, &act.Number, &filename, &signingDate,
		&act.Amount, &act.ContractorID, &invoiceID, &responsible,
	)
	if err != nil {
		return nil, err
	}
	act.Filename = nullString(filename)
	act.SigningDate = scanDate(signingDate)
	act.ResponsibleManager = nullString(responsible)
	if invoiceID.Valid {
		act.InvoiceID = &invoiceID.Int64
	}
	return &act, nil
}

const actColumns = `id, created_at, number, filename, signing_date, amount, contractor_id, invoice_id, responsible_manager`

// GetAct возвращает акт по идентификатору или nil, если он не найден
func (db *DB) GetAct(id int64) (*Act, error) {
	act, err := scanAct(db.conn.QueryRow(`SELECT `+actColumns+` FROM acts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get act %d: %w", id, err)
	}
	return act, nil
}

// ActUpdate изменяемые вручную поля акта. Nil означает «не трогать».
// InvoiceID = 0 снимает привязку к счету.
type ActUpdate struct {
	ResponsibleManager *string
	InvoiceID          *int64
}

// UpdateAct применяет частичное обновление акта.
// Возвращает false, если акт не найден.
func (db *DB) UpdateAct(id int64, upd ActUpdate) (bool, error) {
	setClauses := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)

	if upd.ResponsibleManager != nil {
		setClauses = append(setClauses, "responsible_manager = ?")
		args = append(args, toNullString(*upd.ResponsibleManager))
	}
	if upd.InvoiceID != nil {
		setClauses = append(setClauses, "invoice_id = ?")
		if *upd.InvoiceID == 0 {
			args = append(args, nil)
		} else {
			args = append(args, *upd.InvoiceID)
		}
	}

	if len(setClauses) == 0 {
		return true, nil
	}

	args = append(args, id)
	result, err := db.conn.Exec(`UPDATE acts SET `+strings.Join(setClauses, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update act %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// LinkAct привязывает акт к счету
func (db *DB) LinkAct(actID, invoiceID int64) (bool, error) {
	result, err := db.conn.Exec(`UPDATE acts SET invoice_id = ? WHERE id = ?`, invoiceID, actID)
	if err != nil {
		return false, fmt.Errorf("failed to link act %d to invoice %d: %w", actID, invoiceID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UnlinkAct снимает привязку акта к счету
func (db *DB) UnlinkAct(actID int64) (bool, error) {
	result, err := db.conn.Exec(`UPDATE acts SET invoice_id = NULL WHERE id = ?`, actID)
	if err != nil {
		return false, fmt.Errorf("failed to unlink act %d: %w", actID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteAct удаляет акт. Возвращает false, если он не найден.
func (db *DB) DeleteAct(id int64) (bool, error) {
	result, err := db.conn.Exec(`DELETE FROM acts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete act %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// FreeActs возвращает непривязанные акты контрагента — кандидатов
// на привязку к его счетам.
func (db *DB) FreeActs(contractorID int64) ([]*Act, error) {
	return db.queryActs(
		`SELECT `+actColumns+` FROM acts WHERE contractor_id = ? AND invoice_id IS NULL ORDER BY signing_date DESC`,
		contractorID)
}

// ActsByInvoice возвращает акты, привязанные к счету
func (db *DB) ActsByInvoice(invoiceID int64) ([]*Act, error) {
	return db.queryActs(
		`SELECT `+actColumns+` FROM acts WHERE invoice_id = ? ORDER BY signing_date DESC`,
		invoiceID)
}

func (db *DB) queryActs(query string, args ...interface{}) ([]*Act, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query acts: %w", err)
	}
	defer rows.Close()

	var acts []*Act
	for rows.Next() {
		act, err := scanAct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan act: %w", err)
		}
		acts = append(acts, act)
	}
	return acts, rows.Err()
}

// ActFilter параметры списков привязанных и непривязанных актов
type ActFilter struct {
	ContractorID       int64
	ResponsibleManager string
	DateFrom           *time.Time
	DateTo             *time.Time
	SortBy             string
	SortDir            string
}

// ActListItem строка списка актов с данными контрагента и счета
type ActListItem struct {
	Act
	ContractorName       string     `json:"contractor_name"`
	ContractorINN        string     `json:"contractor_inn"`
	InvoiceNumber        string     `json:"invoice_number"`
	InvoiceDate          *time.Time `json:"invoice_date"`
	HasAvailableInvoices bool       `json:"has_available_invoices"`
}

var actSortColumns = map[string]string{
	"signing_date":        "a.signing_date",
	"contractor_name":     "c.name",
	"contractor_inn":      "c.inn",
	"amount":              "a.amount",
	"responsible_manager": "a.responsible_manager",
	"invoice_number":      "i.number",
}

// ListActs возвращает привязанные либо непривязанные акты с фильтрацией и
// сортировкой. Для непривязанных актов поддерживается сортировка
// has_available_invoices: сначала акты контрагентов, у которых есть
// неоплаченные счета для привязки.
func (db *DB) ListActs(linked bool, filter ActFilter) ([]*ActListItem, error) {
	query := `SELECT a.id, a.created_at, a.number, a.filename, a.signing_date, a.amount,
		a.contractor_id, a.invoice_id, a.responsible_manager, c.name, c.inn, i.number, i.date
		FROM acts a
		LEFT JOIN contractors c ON c.id = a.contractor_id
		LEFT JOIN invoices i ON i.id = a.invoice_id`

	conditions := []string{"a.invoice_id IS NULL"}
	if linked {
		conditions = []string{"a.invoice_id IS NOT NULL"}
	}
	var args []interface{}

	if filter.ContractorID > 0 {
		conditions = append(conditions, "a.contractor_id = ?")
		args = append(args, filter.ContractorID)
	}
	if filter.ResponsibleManager != "" {
		conditions = append(conditions, "a.responsible_manager = ?")
		args = append(args, filter.ResponsibleManager)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, "a.signing_date >= ?")
		args = append(args, filter.DateFrom.Format(dateLayout))
	}
	if filter.DateTo != nil {
		// Верхняя граница включает весь день
		conditions = append(conditions, "a.signing_date <= ?")
		args = append(args, filter.DateTo.Format(dateLayout)+" 23:59:59")
	}
	query += " WHERE " + strings.Join(conditions, " AND ")

	availabilitySort := !linked && filter.SortBy == "has_available_invoices"
	if !availabilitySort {
		sortColumn, ok := actSortColumns[filter.SortBy]
		if !ok {
			sortColumn = actSortColumns["signing_date"]
		}
		direction := "ASC"
		if filter.SortDir == "desc" || filter.SortDir == "" {
			direction = "DESC"
		}
		query += " ORDER BY " + sortColumn + " " + direction
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list acts: %w", err)
	}
	defer rows.Close()

	var items []*ActListItem
	for rows.Next() {
		var item ActListItem
		var filename, signingDate, responsible sql.NullString
		var invoiceID sql.NullInt64
		var contractorName, contractorINN, invoiceNumber, invoiceDate sql.NullString
		if err := rows.Scan(
			&item.ID, &item.CreatedAt, &item.Number, &filename, &signingDate, &item.Amount,
			&item.ContractorID, &invoiceID, &responsible, &contractorName, &contractorINN,
			&invoiceNumber, &invoiceDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan act: %w", err)
		}
		item.Filename = nullString(filename)
		item.SigningDate = scanDate(signingDate)
		item.ResponsibleManager = nullString(responsible)
		if invoiceID.Valid {
			item.InvoiceID = &invoiceID.Int64
		}
		item.ContractorName = nullString(contractorName)
		item.ContractorINN = nullString(contractorINN)
		item.InvoiceNumber = nullString(invoiceNumber)
		item.InvoiceDate = scanDate(invoiceDate)
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !linked {
		if err := db.fillInvoiceAvailability(items); err != nil {
			return nil, err
		}
	}

	if availabilitySort {
		desc := filter.SortDir == "desc" || filter.SortDir == ""
		sort.SliceStable(items, func(a, b int) bool {
			if desc {
				return items[a].HasAvailableInvoices && !items[b].HasAvailableInvoices
			}
			return !items[a].HasAvailableInvoices && items[b].HasAvailableInvoices
		})
	}

	return items, nil
}

// fillInvoiceAvailability отмечает акты контрагентов, у которых есть
// неоплаченные счета, доступные для привязки.
func (db *DB) fillInvoiceAvailability(items []*ActListItem) error {
	if len(items) == 0 {
		return nil
	}

	rows, err := db.conn.Query(
		`SELECT DISTINCT contractor_id FROM invoices WHERE status != ?`, StatusPaid)
	if err != nil {
		return fmt.Errorf("failed to load invoice availability: %w", err)
	}
	defer rows.Close()

	available := make(map[int64]bool)
	for rows.Next() {
		var contractorID int64
		if err := rows.Scan(&contractorID); err != nil {
			return fmt.Errorf("failed to scan contractor id: %w", err)
		}
		available[contractorID] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, item := range items {
		item.HasAvailableInvoices = available[item.ContractorID]
	}
	return nil
}
