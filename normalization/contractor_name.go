package normalization

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// legalForms организационно-правовые формы, которые переносятся в конец названия.
// Порядок важен: поиск идет по первому совпадению слева направо.
var legalForms = []string{"ООО", "ИП", "АО", "ЗАО", "ОАО", "ПАО", "НКО", "АНО", "ФГУП", "МУП"}

var legalFormSet = func() map[string]bool {
	set := make(map[string]bool, len(legalForms))
	for _, form := range legalForms {
		set[form] = true
	}
	return set
}()

var (
	punctReplacer = strings.NewReplacer(`"`, " ", "“", " ", "”", " ", "'", " ", ",", " ", ";", " ")
	parenPattern  = regexp.MustCompile(`\s*\([^)]*\)\s*`)
)

// NormalizeContractorName приводит название контрагента к каноническому виду,
// по которому выполняется поиск дубликатов:
//   - кавычки и разделители заменяются пробелами, пробелы схлопываются;
//   - содержимое скобок удаляется целиком;
//   - первая встреченная правовая форма (ООО, ИП и т.д.) переносится в конец.
//
// Пустая строка возвращается без изменений. Регистр символов сохраняется:
// отображение с приведением регистра выполняет FormatContractorName.
func NormalizeContractorName(name string) string {
	if name == "" {
		return name
	}

	name = punctReplacer.Replace(strings.TrimSpace(name))
	name = parenPattern.ReplaceAllString(name, " ")

	fields := strings.Fields(name)
	for i, field := range fields {
		if legalFormSet[field] {
			rest := append(append([]string{}, fields[:i]...), fields[i+1:]...)
			return strings.TrimSpace(strings.Join(rest, " ") + " " + field)
		}
	}

	return strings.Join(fields, " ")
}

var titleCaser = cases.Title(language.Russian)

// FormatContractorName форматирует нормализованное название для отображения:
// слова приводятся к заглавной первой букве, правовые формы остаются как есть.
// Результат не используется для сравнения — идентичность контрагента
// определяется только NormalizeContractorName.
func FormatContractorName(name string) string {
	fields := strings.Fields(name)
	for i, field := range fields {
		if !legalFormSet[field] {
			fields[i] = titleCaser.String(strings.ToLower(field))
		}
	}
	return strings.Join(fields, " ")
}
