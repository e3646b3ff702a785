// assets/embed.go
//
// Files compiled into the server binary.
// Responsibilities:
//   - SQL migrations for the move archive (migrations/*.sql), applied in
//     lexical order by internal/archive.

package assets

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var FS embed.FS

// Migrations returns the migration files rooted at the migrations directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "migrations")
	if err != nil {
		// only reachable if the embed pattern above changes
		panic(err)
	}
	return sub
}
