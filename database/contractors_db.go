package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"invoicetracker/normalization"
)

// Contractor контрагент — общая сторона счетов и актов.
// Идентичность определяется нормализованным названием.
type Contractor struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	INN       string    `json:"inn"`
}

// GetOrCreateContractor находит контрагента по нормализованному названию или
// создает нового. Существующая запись никогда не перезаписывается: ИНН
// заполняется только при создании. Идентификатор доступен сразу, до того как
// на контрагента сошлются счета или акты.
func GetOrCreateContractor(q Querier, name, inn string) (*Contractor, error) {
	normalized := normalization.NormalizeContractorName(name)

	existing, err := findContractorByName(q, normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	result, err := q.Exec(
		`INSERT INTO contractors (name, inn) VALUES (?, ?)`,
		normalized, toNullString(inn),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create contractor %q: %w", normalized, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get contractor id: %w", err)
	}

	return &Contractor{ID: id, Name: normalized, INN: inn, CreatedAt: time.Now()}, nil
}

func findContractorByName(q Querier, name string) (*Contractor, error) {
	var c Contractor
	var inn sql.NullString
	err := q.QueryRow(
		`SELECT id, created_at, name, inn FROM contractors WHERE name = ?`,
		name,
	).Scan(&c.ID, &c.CreatedAt, &c.Name, &inn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contractor %q: %w", name, err)
	}
	c.INN = nullString(inn)
	return &c, nil
}

// GetContractor возвращает контрагента по идентификатору
func (db *DB) GetContractor(id int64) (*Contractor, error) {
	var c Contractor
	var inn sql.NullString
	err := db.conn.QueryRow(
		`SELECT id, created_at, name, inn FROM contractors WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.CreatedAt, &c.Name, &inn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contractor %d: %w", id, err)
	}
	c.INN = nullString(inn)
	return &c, nil
}

// ListContractors возвращает всех контрагентов в алфавитном порядке
func (db *DB) ListContractors() ([]*Contractor, error) {
	rows, err := db.conn.Query(`SELECT id, created_at, name, inn FROM contractors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contractors: %w", err)
	}
	defer rows.Close()

	var contractors []*Contractor
	for rows.Next() {
		var c Contractor
		var inn sql.NullString
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.Name, &inn); err != nil {
			return nil, fmt.Errorf("failed to scan contractor: %w", err)
		}
		c.INN = nullString(inn)
		contractors = append(contractors, &c)
	}
	return contractors, rows.Err()
}

// UpdateContractorINN заполняет ИНН контрагента. Возвращает false,
// если контрагент не найден.
func (db *DB) UpdateContractorINN(id int64, inn string) (bool, error) {
	result, err := db.conn.Exec(`UPDATE contractors SET inn = ? WHERE id = ?`, inn, id)
	if err != nil {
		return false, fmt.Errorf("failed to update contractor inn: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
