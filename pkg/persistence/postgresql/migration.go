package postgresql

import (
	"embed"
	"io/fs"

	"github.com/carsna/carsna/pkg/persistence/sqlbase"
)

// migrationLockID identifies the advisory lock held while the schema is migrated.
const migrationLockID int64 = 0x636172736e61

//go:embed migrations/*.sql
var migrationFiles embed.FS

func migrations() ([]sqlbase.Migration, error) {
	dir, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}

	return sqlbase.LoadMigrations(dir)
}
