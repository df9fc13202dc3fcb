package migrate

import (
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedded embed.FS

// EmbeddedDir selects the migrations compiled into the binary.
const EmbeddedDir = "migrations"

func useBaseFS(dir string) {
	if dir == EmbeddedDir {
		goose.SetBaseFS(embedded)
		return
	}
	goose.SetBaseFS(nil)
}
