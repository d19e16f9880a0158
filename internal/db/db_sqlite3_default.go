//go:build !sqlite3_cgo

package db

import (
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const driverID = "ncruces/go-sqlite3"
const driverName = "sqlite3"

const dsnParams = "_txlock=immediate&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
