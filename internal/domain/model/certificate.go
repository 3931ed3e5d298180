package model

import (
	"strings"
	"time"
)

// Certificate — запись о сертификате из подтверждённого пакета.
// Видима, только пока её пакет не удалён.
type Certificate struct {
	// ID — UUID сертификата
	ID string
	// BatchID — пакет, из которого загружен сертификат
	BatchID string
	// CertificateNo — номер сертификата
	CertificateNo string
	// Name — имя получателя
	Name string
	// RollNo — номер студенческого
	RollNo string
	// Event — название мероприятия
	Event string
	// Date — дата мероприятия в исходном текстовом виде
	Date string
	// UploadedBy — email загрузившего
	UploadedBy string
	// UploadedAt — время загрузки пакета
	UploadedAt time.Time
	// AdditionalData — прочие колонки исходной строки
	AdditionalData map[string]string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// CertificateFilter — фильтры списка и экспорта сертификатов.
// Каждое непустое текстовое поле — регистронезависимый поиск подстроки,
// BatchID — точное совпадение; условия объединяются через AND.
type CertificateFilter struct {
	Name          string
	RollNo        string
	Event         string
	Date          string
	UploadedBy    string
	CertificateNo string
	BatchID       string
}

// IsEmpty возвращает true, если ни одно поле фильтра не задано (пробелы не считаются).
func (f CertificateFilter) IsEmpty() bool {
	for _, v := range f.Values() {
		if v != "" {
			return false
		}
	}
	return true
}

// Values возвращает значения полей с обрезанными пробелами, ключ — имя параметра запроса.
func (f CertificateFilter) Values() map[string]string {
	return map[string]string{
		"name":          strings.TrimSpace(f.Name),
		"rollNo":        strings.TrimSpace(f.RollNo),
		"event":         strings.TrimSpace(f.Event),
		"date":          strings.TrimSpace(f.Date),
		"uploadedBy":    strings.TrimSpace(f.UploadedBy),
		"certificateNo": strings.TrimSpace(f.CertificateNo),
		"batchId":       strings.TrimSpace(f.BatchID),
	}
}

// GroupCount — количество сертификатов в группе (по загрузившему или мероприятию).
type GroupCount struct {
	Key   string
	Count int64
}

// DashboardStats — агрегаты для dashboard.
type DashboardStats struct {
	TotalCertificates    int64
	TotalBatches         int64
	CertificatesPerClub  []GroupCount
	CertificatesPerEvent []GroupCount
	LatestBatches        []*UploadBatch
}
