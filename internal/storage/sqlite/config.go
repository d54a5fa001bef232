package sqlite

// DefaultDSN is the database file used when none is configured.
const DefaultDSN = "Banks.db"

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a file path or a modernc.org/sqlite connection string, e.g.:
	//   "Banks.db"
	//   "file:Banks.db?_pragma=busy_timeout(5000)"
	//   ":memory:"
	DSN string

	// Table is the target table for CopyFrom. "main.banks" style names are
	// accepted.
	Table string

	// Columns is the ordered list of destination columns.
	Columns []string
}
