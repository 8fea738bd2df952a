// Package store selecciona la implementación de domain.IdentityRepository.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/credgate/internal/config"
	"github.com/dropDatabas3/credgate/internal/domain"
	"github.com/dropDatabas3/credgate/internal/store/memory"
	"github.com/dropDatabas3/credgate/internal/store/pg"
	migrations "github.com/dropDatabas3/credgate/migrations/postgres"
)

type Config struct {
	Driver   string
	DSN      string
	Postgres struct {
		MaxOpenConns    int
		MinConns        int
		ConnMaxLifetime time.Duration
	}
	// AutoMigrate aplica las migraciones embebidas al abrir (sólo postgres).
	AutoMigrate bool
}

// ConfigFrom extrae la sección storage de la config del servicio.
func ConfigFrom(c *config.Config) Config {
	sc := Config{Driver: c.Storage.Driver, DSN: c.Storage.DSN, AutoMigrate: c.Storage.AutoMigrate}
	sc.Postgres.MaxOpenConns = c.Storage.Postgres.MaxOpenConns
	sc.Postgres.MinConns = c.Storage.Postgres.MinConns
	sc.Postgres.ConnMaxLifetime = c.Storage.Postgres.ConnMaxLifetime
	return sc
}

// Open devuelve el repositorio para cfg.Driver (memory | postgres).
func Open(ctx context.Context, cfg Config) (domain.IdentityRepository, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return memory.New(), nil
	case "postgres", "pg", "postgresql":
		pool, err := pg.Open(ctx, cfg.DSN, pg.PoolConfig{
			MaxConns:        cfg.Postgres.MaxOpenConns,
			MinConns:        cfg.Postgres.MinConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if _, err := pg.Migrate(ctx, pool, migrations.FS, "up", 0); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return pg.New(pool), nil
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}
