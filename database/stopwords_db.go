package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StopWord стоп-слово. Присутствие стоп-слова в комментарии счета
// исключает строку из импорта 1С.
type StopWord struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Word      string    `json:"word"`
}

// AddStopWord добавляет стоп-слово, если его еще нет. Повторное добавление
// не является ошибкой.
func (db *DB) AddStopWord(word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return errors.New("стоп-слово не может быть пустым")
	}

	var existingID int64
	err := db.conn.QueryRow(`SELECT id FROM stop_words WHERE word = ?`, word).Scan(&existingID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check stop word %q: %w", word, err)
	}

	if _, err := db.conn.Exec(`INSERT INTO stop_words (word) VALUES (?)`, word); err != nil {
		return fmt.Errorf("failed to add stop word %q: %w", word, err)
	}
	return nil
}

// DeleteStopWord удаляет стоп-слово по идентификатору
func (db *DB) DeleteStopWord(id int64) (bool, error) {
	result, err := db.conn.Exec(`DELETE FROM stop_words WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete stop word %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListStopWords возвращает все стоп-слова
func (db *DB) ListStopWords() ([]*StopWord, error) {
	rows, err := db.conn.Query(`SELECT id, created_at, word FROM stop_words ORDER BY word`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stop words: %w", err)
	}
	defer rows.Close()

	var words []*StopWord
	for rows.Next() {
		var sw StopWord
		if err := rows.Scan(&sw.ID, &sw.CreatedAt, &sw.Word); err != nil {
			return nil, fmt.Errorf("failed to scan stop word: %w", err)
		}
		words = append(words, &sw)
	}
	return words, rows.Err()
}

// StopWordsLower возвращает стоп-слова в нижнем регистре для проверки
// комментариев без учета регистра.
func StopWordsLower(q Querier) ([]string, error) {
	rows, err := q.Query(`SELECT word FROM stop_words`)
	if err != nil {
		return nil, fmt.Errorf("failed to load stop words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, fmt.Errorf("failed to scan stop word: %w", err)
		}
		words = append(words, strings.ToLower(word))
	}
	return words, rows.Err()
}
