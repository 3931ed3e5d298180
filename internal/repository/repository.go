// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — чистый SQL через pgx, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — конфликт уникальности (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — запись уже существует")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// runInTx выполняет fn внутри транзакции (или savepoint, если db — уже транзакция).
// При ошибке fn транзакция откатывается, при успехе — коммитится.
func runInTx(ctx context.Context, db DBTX, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// isUniqueViolation проверяет, является ли ошибка нарушением уникальности PostgreSQL.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isInvalidText проверяет ошибку разбора значения (например, некорректный UUID).
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "22P02" // invalid_text_representation
	}
	return false
}

// likeEscaper экранирует метасимволы LIKE, чтобы фильтр искал подстроку буквально.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern возвращает шаблон ILIKE для поиска подстроки s.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
