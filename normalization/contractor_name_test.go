package normalization

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeContractorName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "правовая форма в начале уходит в конец",
			input:    "ООО Ромашка",
			expected: "Ромашка ООО",
		},
		{
			name:     "правовая форма в кавычках",
			input:    `ООО "Ромашка"`,
			expected: "Ромашка ООО",
		},
		{
			name:     "правовая форма уже в конце остается в конце",
			input:    "Ромашка ООО",
			expected: "Ромашка ООО",
		},
		{
			name:     "скобки удаляются вместе с содержимым",
			input:    "ООО Ромашка (старый договор)",
			expected: "Ромашка ООО",
		},
		{
			name:     "ИП с ФИО",
			input:    "ИП Иванов Иван Иванович",
			expected: "Иванов Иван Иванович ИП",
		},
		{
			name:     "лишние пробелы схлопываются",
			input:    "  АО   Вектор  ",
			expected: "Вектор АО",
		},
		{
			name:     "запятые и точки с запятой",
			input:    "ЗАО Вектор, г. Москва",
			expected: "Вектор г. Москва ЗАО",
		},
		{
			name:     "без правовой формы порядок слов сохраняется",
			input:    "Завод Прогресс",
			expected: "Завод Прогресс",
		},
		{
			name:     "правовая форма как часть слова не переносится",
			input:    "ИПОТЕКА Сервис",
			expected: "ИПОТЕКА Сервис",
		},
		{
			name:     "пустая строка возвращается как есть",
			input:    "",
			expected: "",
		},
		{
			name:     "строка из пробелов",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeContractorName(tt.input))
		})
	}
}

// Для каждой правовой формы нормализация переносит её в конец названия,
// а повторная нормализация ничего не меняет.
func TestNormalizeContractorNameAllLegalForms(t *testing.T) {
	for _, form := range legalForms {
		t.Run(form, func(t *testing.T) {
			normalized := NormalizeContractorName(form + " Ромашка")
			assert.Equal(t, "Ромашка "+form, normalized)
			assert.True(t, strings.HasSuffix(normalized, form))

			// идемпотентность
			assert.Equal(t, normalized, NormalizeContractorName(normalized))
		})
	}
}

func TestFormatContractorName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "слова приводятся к заглавной букве",
			input:    "ромашка ООО",
			expected: "Ромашка ООО",
		},
		{
			name:     "правовая форма не меняет регистр",
			input:    "вектор ЗАО",
			expected: "Вектор ЗАО",
		},
		{
			name:     "пустая строка",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatContractorName(tt.input))
		})
	}
}
