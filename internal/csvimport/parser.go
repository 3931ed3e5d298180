// Пакет csvimport — разбор загружаемых CSV-файлов с сертификатами
// и фильтрация строк предпросмотра.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row — строка CSV: имя колонки → значение ячейки. Значения не приводятся к типам.
type Row map[string]string

// RowError — ошибка разбора отдельной строки файла.
type RowError struct {
	// Line — номер строки в файле (с 1, включая заголовок)
	Line int
	// Message — описание ошибки
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("строка %d: %s", e.Line, e.Message)
}

// Result — результат разбора CSV.
type Result struct {
	// Headers — имена колонок из первой строки, без пробелов по краям
	Headers []string
	// Rows — строки данных в исходном порядке
	Rows []Row
	// TotalRows — количество строк данных
	TotalRows int
	// Errors — ошибки отдельных строк; разбор при них не прерывается
	Errors []RowError
}

// Parse разбирает CSV из r. Первая непустая строка — заголовок.
// BOM в начале файла отбрасывается, пустые строки пропускаются.
// Строка с другим числом полей сохраняется (недостающие ячейки пустые,
// лишние отбрасываются) и попадает в Errors. Строка с ошибкой кавычек
// пропускается и попадает в Errors. Ошибка кавычек в строке заголовка
// прекращает разбор: результат без заголовков и строк с этой ошибкой в Errors.
// Ошибка возвращается только при сбое чтения r.
func Parse(r io.Reader) (*Result, error) {
	br := stripUTF8BOM(bufio.NewReader(r))

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	res := &Result{Headers: []string{}, Rows: []Row{}}
	headerRead := false

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("чтение CSV: %w", err)
			}
			res.Errors = append(res.Errors, RowError{Line: pe.StartLine, Message: pe.Err.Error()})
			if !headerRead {
				// без заголовка строки не сопоставить с колонками
				break
			}
			continue
		}
		if isBlank(record) {
			continue
		}

		line, _ := cr.FieldPos(0)

		if !headerRead {
			res.Headers = make([]string, len(record))
			for i, h := range record {
				res.Headers[i] = strings.TrimSpace(h)
			}
			headerRead = true
			continue
		}

		if len(record) != len(res.Headers) {
			res.Errors = append(res.Errors, RowError{
				Line: line,
				Message: fmt.Sprintf("ожидалось полей: %d, получено: %d",
					len(res.Headers), len(record)),
			})
		}

		row := make(Row, len(res.Headers))
		for i, h := range res.Headers {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		res.Rows = append(res.Rows, row)
	}

	res.TotalRows = len(res.Rows)
	return res, nil
}

// stripUTF8BOM отбрасывает UTF-8 BOM в начале потока.
func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

// isBlank — все ячейки записи пусты или состоят из пробелов.
func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
