package csvimport

import "strings"

// EventColumn — колонка, по которой фильтруется предпросмотр.
const EventColumn = "Event"

// FilterByEvent возвращает строки, в колонке Event которых содержится query
// без учёта регистра. Порядок строк сохраняется.
// Пустой (из пробелов) query возвращает rows без изменений.
func FilterByEvent(rows []Row, query string) []Row {
	return FilterByColumn(rows, EventColumn, query)
}

// FilterByColumn — регистронезависимый поиск подстроки query в колонке column.
// Строки без колонки не проходят фильтр.
func FilterByColumn(rows []Row, column, query string) []Row {
	if strings.TrimSpace(query) == "" {
		return rows
	}

	needle := strings.ToLower(query)
	matched := make([]Row, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row[column]), needle) {
			matched = append(matched, row)
		}
	}
	return matched
}
