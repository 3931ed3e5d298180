// Пакет rbac — роли пользователей certificate-manager.
// Суперадминистратор один, остальные фиксированные учётные записи — клубы.
// Мягкое удаление, восстановление и журнал аудита доступны только суперадминистратору.
package rbac

import (
	"strings"

	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
)

// Роли в порядке возрастания привилегий.
const (
	RoleClub  = "club"
	RoleAdmin = "admin"
)

// roleWeight — вес роли для сравнения.
var roleWeight = map[string]int{
	RoleClub:  1,
	RoleAdmin: 2,
}

// NewIdentity формирует Identity для email с учётом email суперадминистратора.
// Сравнение регистронезависимое.
func NewIdentity(email, superAdminEmail string) model.Identity {
	email = normalizeEmail(email)
	isSuper := email != "" && email == normalizeEmail(superAdminEmail)
	role := RoleClub
	if isSuper {
		role = RoleAdmin
	}
	return model.Identity{Email: email, Role: role, IsSuperAdmin: isSuper}
}

// CanManageBatches возвращает true, если пользователь может мягко удалять и восстанавливать пакеты.
func CanManageBatches(id *model.Identity) bool {
	return id != nil && id.IsSuperAdmin && HasRole(id.Role, RoleAdmin)
}

// CanViewAudit возвращает true, если пользователь может читать журнал аудита.
func CanViewAudit(id *model.Identity) bool {
	return CanManageBatches(id)
}

// CanViewDeletedBatches возвращает true, если пользователь видит удалённые пакеты.
func CanViewDeletedBatches(id *model.Identity) bool {
	return CanManageBatches(id)
}

// HasRole проверяет, что role не ниже required.
func HasRole(role, required string) bool {
	w, ok := roleWeight[role]
	if !ok {
		return false
	}
	return w >= roleWeight[required]
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
