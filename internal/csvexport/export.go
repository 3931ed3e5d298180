// Пакет csvexport — выгрузка сертификатов в CSV и XLSX с фиксированным набором колонок.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
)

// Format — формат выгрузки.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetName — имя листа в XLSX-выгрузке.
const SheetName = "Certificates"

// ParseFormat разбирает формат выгрузки; пустая строка означает CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("неизвестный формат выгрузки %q, допустимые: csv, xlsx", s)
	}
}

// ContentType возвращает MIME-тип формата.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename формирует имя файла выгрузки по дате now (UTC).
func Filename(now time.Time, filtered bool, format Format) string {
	kind := "all"
	if filtered {
		kind = "filtered"
	}
	ext := string(format)
	if ext == "" {
		ext = string(FormatCSV)
	}
	return fmt.Sprintf("certificates_%s_%s.%s", kind, now.UTC().Format(time.DateOnly), ext)
}

// FieldValue возвращает значение колонки выгрузки для сертификата.
// Неизвестная колонка даёт пустую строку.
func FieldValue(c *model.Certificate, field string) string {
	switch field {
	case "CertificateNo":
		return c.CertificateNo
	case "Name":
		return c.Name
	case "RollNo":
		return c.RollNo
	case "Event":
		return c.Event
	case "Date":
		return c.Date
	case "UploadedBy":
		return c.UploadedBy
	default:
		return ""
	}
}

// Write записывает сертификаты в w в указанном формате.
func Write(w io.Writer, format Format, fields []string, certs []*model.Certificate) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, fields, certs)
	default:
		return WriteCSV(w, fields, certs)
	}
}

// WriteCSV записывает заголовок из fields и по строке на сертификат.
// Значения с запятой, кавычкой или переводом строки берутся в кавычки,
// внутренние кавычки удваиваются.
func WriteCSV(w io.Writer, fields []string, certs []*model.Certificate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(fields); err != nil {
		return fmt.Errorf("запись заголовка CSV: %w", err)
	}

	record := make([]string, len(fields))
	for _, c := range certs {
		for i, f := range fields {
			record[i] = FieldValue(c, f)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("запись строки CSV: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("запись CSV: %w", err)
	}
	return nil
}

// WriteXLSX записывает книгу с одним листом: заголовок и по строке на сертификат.
func WriteXLSX(w io.Writer, fields []string, certs []*model.Certificate) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("переименование листа: %w", err)
	}

	header := make([]any, len(fields))
	for i, name := range fields {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("запись заголовка XLSX: %w", err)
	}

	for n, c := range certs {
		row := make([]any, len(fields))
		for i, name := range fields {
			row[i] = FieldValue(c, name)
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return fmt.Errorf("адрес ячейки: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("запись строки XLSX: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("запись XLSX: %w", err)
	}
	return nil
}
