package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Employee сотрудник. Фамилии сотрудников образуют список РПО — фильтр
// ответственных при импорте 1С.
type Employee struct {
	ID         int64     `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastName   string    `json:"last_name"`
	FirstName  string    `json:"first_name"`
	MiddleName string    `json:"middle_name"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
}

// GetOrCreateEmployee находит сотрудника по паре (фамилия, имя) или создает
// нового. Порядок разбора ФИО закреплен исторически: первый токен — имя,
// второй — фамилия, третий — отчество. Менять его нельзя, иначе разойдутся
// данные, накопленные существующими установками.
func GetOrCreateEmployee(q Querier, fullName string) (*Employee, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, nil
	}

	parts := strings.Fields(fullName)
	firstName := parts[0]
	lastName := ""
	if len(parts) > 1 {
		lastName = parts[1]
	}
	middleName := ""
	if len(parts) > 2 {
		middleName = parts[2]
	}

	existing, err := findEmployeeByName(q, lastName, firstName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	result, err := q.Exec(
		`INSERT INTO employees (last_name, first_name, middle_name) VALUES (?, ?, ?)`,
		lastName, firstName, toNullString(middleName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create employee %q: %w", fullName, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get employee id: %w", err)
	}

	return &Employee{
		ID:         id,
		LastName:   lastName,
		FirstName:  firstName,
		MiddleName: middleName,
		CreatedAt:  time.Now(),
	}, nil
}

func findEmployeeByName(q Querier, lastName, firstName string) (*Employee, error) {
	var e Employee
	var middleName, department, position sql.NullString
	err := q.QueryRow(
		`SELECT id, created_at, last_name, first_name, middle_name, department, position
		 FROM employees WHERE last_name = ? AND first_name = ?`,
		lastName, firstName,
	).Scan(&e.ID, &e.CreatedAt, &e.LastName, &e.FirstName, &middleName, &department, &position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find employee %s %s: %w", lastName, firstName, err)
	}
	e.MiddleName = nullString(middleName)
	e.Department = nullString(department)
	e.Position = nullString(position)
	return &e, nil
}

// ListEmployees возвращает всех сотрудников
func (db *DB) ListEmployees() ([]*Employee, error) {
	rows, err := db.conn.Query(
		`SELECT id, created_at, last_name, first_name, middle_name, department, position
		 FROM employees ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []*Employee
	for rows.Next() {
		var e Employee
		var middleName, department, position sql.NullString
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.LastName, &e.FirstName, &middleName, &department, &position); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		e.MiddleName = nullString(middleName)
		e.Department = nullString(department)
		e.Position = nullString(position)
		employees = append(employees, &e)
	}
	return employees, rows.Err()
}

// ErrEmployeeExists сотрудник с такой парой (фамилия, имя) уже есть
var ErrEmployeeExists = errors.New("сотрудник с такими ФИО уже существует")

// AddEmployee добавляет сотрудника. Пара (фамилия, имя) должна быть уникальна.
func (db *DB) AddEmployee(e *Employee) error {
	existing, err := findEmployeeByName(db.conn, e.LastName, e.FirstName)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmployeeExists
	}

	result, err := db.conn.Exec(
		`INSERT INTO employees (last_name, first_name, middle_name, department, position)
		 VALUES (?, ?, ?, ?, ?)`,
		e.LastName, e.FirstName, toNullString(e.MiddleName), toNullString(e.Department), toNullString(e.Position),
	)
	if err != nil {
		return fmt.Errorf("failed to add employee: %w", err)
	}
	e.ID, err = result.LastInsertId()
	return err
}

// UpdateEmployee изменяет данные сотрудника. Возвращает ErrEmployeeExists,
// если новая пара (фамилия, имя) занята другим сотрудником.
func (db *DB) UpdateEmployee(e *Employee) (bool, error) {
	existing, err := findEmployeeByName(db.conn, e.LastName, e.FirstName)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.ID != e.ID {
		return false, ErrEmployeeExists
	}

	result, err := db.conn.Exec(
		`UPDATE employees SET last_name = ?, first_name = ?, middle_name = ?, department = ?, position = ?
		 WHERE id = ?`,
		e.LastName, e.FirstName, toNullString(e.MiddleName), toNullString(e.Department), toNullString(e.Position), e.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update employee %d: %w", e.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteEmployee удаляет сотрудника. Возвращает false, если он не найден.
func (db *DB) DeleteEmployee(id int64) (bool, error) {
	result, err := db.conn.Exec(`DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete employee %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RPOSurnames возвращает множество фамилий сотрудников в нижнем регистре —
// список допуска для проверки ответственных при импорте 1С.
func RPOSurnames(q Querier) (map[string]bool, error) {
	rows, err := q.Query(`SELECT last_name FROM employees`)
	if err != nil {
		return nil, fmt.Errorf("failed to load RPO surnames: %w", err)
	}
	defer rows.Close()

	surnames := make(map[string]bool)
	for rows.Next() {
		var lastName string
		if err := rows.Scan(&lastName); err != nil {
			return nil, fmt.Errorf("failed to scan surname: %w", err)
		}
		if lastName != "" {
			surnames[strings.ToLower(lastName)] = true
		}
	}
	return surnames, rows.Err()
}
