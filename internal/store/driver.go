package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// DefaultDriver is the pure-Go SQLite driver. It ships FTS5.
const DefaultDriver = "sqlite"

// dsnBuilder renders a database path into a driver-specific DSN carrying the
// required pragmas.
type dsnBuilder func(path string) string

var (
	driversMu sync.RWMutex
	drivers   = map[string]dsnBuilder{
		DefaultDriver: moderncDSN,
	}
)

// registerDriver makes a database/sql driver usable by Open.
func registerDriver(name string, build dsnBuilder) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = build
}

// Drivers returns the names of the drivers compiled into this binary.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func dsnFor(driver, path string) (string, error) {
	driversMu.RLock()
	build, ok := drivers[driver]
	driversMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unsupported driver %q (available: %s)", driver, strings.Join(Drivers(), ", "))
	}
	return build(path), nil
}

func moderncDSN(path string) string {
	return path + "?" + strings.Join([]string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
	}, "&")
}
