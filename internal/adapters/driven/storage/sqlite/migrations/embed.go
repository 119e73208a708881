// Package migrations carries the schema migration scripts for the
// library database, compiled into the binary.
package migrations

import "embed"

// FS holds every migration script. Store.migrate applies the .up.sql
// files in version order.
//
//go:embed *.sql
var FS embed.FS
