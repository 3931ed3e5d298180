package model

import "time"

// Действия журнала аудита.
const (
	AuditUpload  = "UPLOAD"
	AuditExport  = "EXPORT"
	AuditDelete  = "DELETE"
	AuditRestore = "RESTORE"
	AuditLogin   = "LOGIN"
	AuditLogout  = "LOGOUT"
)

// AuditLog — запись журнала аудита. Только добавляется.
type AuditLog struct {
	// ID — UUID записи
	ID string
	// Action — UPLOAD, EXPORT, DELETE, RESTORE, LOGIN, LOGOUT
	Action string
	// UserID — идентификатор пользователя (email)
	UserID string
	// UserEmail — email пользователя
	UserEmail string
	// Details — произвольные детали действия
	Details map[string]any
	// Timestamp — время действия
	Timestamp time.Time
	// IPAddress — адрес клиента (nil, если неизвестен)
	IPAddress *string
	// UserAgent — User-Agent клиента (nil, если неизвестен)
	UserAgent *string
}

// Identity — аутентифицированный пользователь текущего запроса.
type Identity struct {
	Email        string
	Role         string
	IsSuperAdmin bool
}
