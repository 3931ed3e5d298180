// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrUnauthorized — пользователь не аутентифицирован.
	ErrUnauthorized = errors.New("требуется аутентификация")
	// ErrForbidden — недостаточно прав.
	ErrForbidden = errors.New("недостаточно прав")
	// ErrNoData — нет данных для выгрузки.
	ErrNoData = errors.New("нет сертификатов для выгрузки")
	// ErrInvalidCredentials — неверный email или пароль.
	ErrInvalidCredentials = errors.New("неверный email или пароль")
)
