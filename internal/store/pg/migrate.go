package pg

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/dropDatabas3/credgate/internal/observability/logger"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer es lo único que necesita el runner de migraciones.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Migrate aplica los *_up.sql (orden ascendente) o *_down.sql (orden
// inverso) de fsys. steps > 0 limita la cantidad de archivos. Los scripts
// son idempotentes (IF [NOT] EXISTS), así que re-aplicar es seguro.
func Migrate(ctx context.Context, db Execer, fsys fs.FS, direction string, steps int) ([]string, error) {
	var suffix string
	switch direction {
	case "up":
		suffix = "_up.sql"
	case "down":
		suffix = "_down.sql"
	default:
		return nil, fmt.Errorf("migrate: unknown direction %q (up|down)", direction)
	}

	files, err := listSQL(fsys, suffix)
	if err != nil {
		return nil, fmt.Errorf("migrate: list: %w", err)
	}
	sort.Strings(files)
	if direction == "down" {
		reverseInPlace(files)
	}
	if steps > 0 && steps < len(files) {
		files = files[:steps]
	}

	log := logger.From(ctx).With(logger.Component("migrate"), logger.String("direction", direction))
	applied := make([]string, 0, len(files))
	for _, f := range files {
		b, err := fs.ReadFile(fsys, f)
		if err != nil {
			return applied, fmt.Errorf("migrate: read %s: %w", f, err)
		}
		start := time.Now()
		if _, err := db.Exec(ctx, string(b)); err != nil {
			return applied, fmt.Errorf("migrate: exec %s: %w", f, err)
		}
		log.Info("migration applied", logger.String("file", f), logger.Duration("took", time.Since(start)))
		applied = append(applied, f)
	}
	return applied, nil
}

func listSQL(fsys fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func reverseInPlace(ss []string) {
	for i, j := 0, len(ss)-1; i < j; i, j = i+1, j-1 {
		ss[i], ss[j] = ss[j], ss[i]
	}
}
