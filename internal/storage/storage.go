// Package storage provides the persistence collaborators behind the
// domain.RecordStore contract: an in-memory store, a shared SQL store for
// SQLite, Postgres, and MySQL, and a MongoDB store.
package storage

import (
	"fmt"

	"github.com/msstter/Infinite-canvas/internal/domain"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongo"
)

// Open creates a record store for the given driver. For sqlite the DSN is a
// file path; for postgres/mysql/mongo it is the driver's connection string.
func Open(driver, dsn string) (domain.RecordStore, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, DriverPostgres, DriverMySQL:
		return openSQL(driver, dsn)
	case DriverMongo:
		return openMongo(dsn)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
}
