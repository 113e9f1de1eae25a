//go:build cgo && sqlite_fts5

package store

import (
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// CgoDriver is the cgo SQLite driver. FTS5 is only compiled in with the
// sqlite_fts5 build tag, so the driver is only registered under that tag.
const CgoDriver = "sqlite3"

func init() {
	registerDriver(CgoDriver, mattnDSN)
}

func mattnDSN(path string) string {
	return path + "?" + strings.Join([]string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
		"_synchronous=NORMAL",
	}, "&")
}
