// Пакет model — доменные модели certificate-manager.
package model

import "time"

// Статусы пакета загрузки.
const (
	BatchStatusPending    = "pending"
	BatchStatusProcessing = "processing"
	BatchStatusCompleted  = "completed"
	BatchStatusFailed     = "failed"
)

// UploadBatch — пакет загрузки: один подтверждённый CSV-файл.
// Хранится в таблице upload_batches и никогда не удаляется физически.
type UploadBatch struct {
	// ID — UUID пакета
	ID string
	// FileName — сохранённое имя файла (processed_<OriginalName>)
	FileName string
	// OriginalName — имя файла, выбранное пользователем
	OriginalName string
	// UploadedBy — email загрузившего
	UploadedBy string
	// UploadedAt — время подтверждения загрузки
	UploadedAt time.Time
	// TotalRecords — количество строк в пакете
	TotalRecords int
	// ProcessedRecords — количество записанных сертификатов
	ProcessedRecords int
	// Status — pending, processing, completed, failed
	Status string
	// IsDeleted — пакет мягко удалён
	IsDeleted bool
	// DeletedBy — email удалившего (nil, если не удалён)
	DeletedBy *string
	// DeletedAt — время удаления (nil, если не удалён)
	DeletedAt *time.Time
	// EventCode — необязательный код мероприятия
	EventCode *string
	// Description — необязательное описание
	Description *string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// IsValidBatchStatus проверяет допустимость статуса пакета.
func IsValidBatchStatus(status string) bool {
	switch status {
	case BatchStatusPending, BatchStatusProcessing, BatchStatusCompleted, BatchStatusFailed:
		return true
	}
	return false
}
