// Package all registers every built-in storage backend. Import it for side
// effects from the binary's wiring layer:
//
//	import _ "banketl/internal/storage/all"
//
// after which storage.New accepts Kind "sqlite", "postgres" or "mssql".
package all

import (
	_ "banketl/internal/storage/mssql"
	_ "banketl/internal/storage/postgres"
	_ "banketl/internal/storage/sqlite"
)
