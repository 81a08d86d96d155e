package utils

import "strings"

// NormalizeCatalogName приводит название из справочника к единому виду:
// обрезает пробелы по краям и схлопывает повторяющиеся пробелы внутри.
func NormalizeCatalogName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// HasListSeparator сообщает, похоже ли значение на список из нескольких
// названий ("A/B", "A, B", "A; B").
func HasListSeparator(raw string) bool {
	return strings.ContainsAny(raw, "/,;")
}
