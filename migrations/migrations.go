// migrations содержит встроенные goose-миграции схемы БД и
// функцию их применения при старте сервиса.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var fs embed.FS

// Up применяет все недостающие миграции к БД по dbURL.
// Использует отдельное database/sql-подключение (pgx stdlib):
// goose не работает поверх pgxpool.
func Up(ctx context.Context, dbURL string) error {
	const op = "migrations.Up"

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	goose.SetBaseFS(fs)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
