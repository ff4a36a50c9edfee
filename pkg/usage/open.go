package usage

import (
	"fmt"
	"time"
)

// Open returns the store for backend ("sqlite" or "memory").
func Open(backend, sqlitePath string, busyTimeout time.Duration) (Store, error) {
	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "":
		return NewSQLiteStore(SQLiteConfig{Path: sqlitePath, BusyTimeout: busyTimeout})
	default:
		return nil, fmt.Errorf("unknown usage backend %q", backend)
	}
}
