package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/credgate/internal/store"
	"github.com/dropDatabas3/credgate/internal/store/pg"
	migrations "github.com/dropDatabas3/credgate/migrations/postgres"
)

func newMigrateCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down] [steps]",
		Short:     "Aplica o revierte las migraciones embebidas de postgres",
		Args:      cobra.RangeArgs(0, 2),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			steps := 0
			if len(args) >= 1 {
				direction = strings.ToLower(args[0])
			}
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 0 {
					return fmt.Errorf("steps must be a non-negative integer, got %q", args[1])
				}
				steps = n
			}
			if direction != "up" && direction != "down" {
				return fmt.Errorf("unknown direction %q (up|down)", direction)
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			sc := store.ConfigFrom(cfg)
			if sc.Driver != "postgres" {
				return fmt.Errorf("migrate requires storage.driver=postgres (got %q)", sc.Driver)
			}

			ctx := cmd.Context()
			pool, err := pg.Open(ctx, sc.DSN, pg.PoolConfig{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := pg.Migrate(ctx, pool, migrations.FS, direction, steps)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No migrations found. Nothing to do.")
				return nil
			}
			for _, f := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", f)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s migrations completed (%d file(s)).\n", direction, len(applied))
			return nil
		},
	}
}
