package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// InitSchema создает таблицы учета счетов и актов, если их еще нет.
// Все выражения идемпотентны, поэтому инициализацию можно выполнять
// при каждом запуске.
func InitSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS contractors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			name TEXT UNIQUE,
			inn TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS employees (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_name TEXT,
			first_name TEXT,
			middle_name TEXT,
			department TEXT,
			position TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS stop_words (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			word TEXT UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			number TEXT,
			date TEXT,
			amount REAL,
			contractor_id INTEGER REFERENCES contractors(id),
			organization_group TEXT,
			responsible_import TEXT,
			comment TEXT,
			deadline TEXT,
			deadline_days INTEGER,
			payment_date TEXT,
			motivated_person TEXT,
			status TEXT DEFAULT 'Не оплачен'
		)`,
		`CREATE TABLE IF NOT EXISTS acts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			number TEXT,
			filename TEXT,
			signing_date TEXT,
			amount REAL,
			contractor_id INTEGER REFERENCES contractors(id),
			invoice_id INTEGER REFERENCES invoices(id),
			responsible_manager TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contractors_name ON contractors(name)`,
		`CREATE INDEX IF NOT EXISTS idx_employees_name ON employees(last_name, first_name)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_dedup ON invoices(number, date, amount)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_contractor ON invoices(contractor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_acts_dedup ON acts(number, signing_date, amount)`,
		`CREATE INDEX IF NOT EXISTS idx_acts_contractor ON acts(contractor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_acts_invoice ON acts(invoice_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			errStr := strings.ToLower(err.Error())
			if !strings.Contains(errStr, "already exists") {
				return fmt.Errorf("schema statement failed: %s, error: %w", stmt, err)
			}
		}
	}

	return nil
}
