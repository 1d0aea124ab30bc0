//go:build !sqlite

package export

import "fmt"

// NewSQLiteExporter reports that this build was compiled without SQLite
// support, mirroring wizardbeard-protogonos/internal/storage/factory_nosqlite.go's
// newSQLiteStore stub. Rebuild with -tags sqlite to get a real exporter.
func NewSQLiteExporter(_ string) (Exporter, error) {
	return nil, fmt.Errorf("stick: export: sqlite backend unavailable in this build; rebuild with -tags sqlite")
}
