package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/credgate/internal/domain"
	"github.com/dropDatabas3/credgate/internal/store"
)

// promote cambia el rol de una identidad existente. Es la única forma de
// crear el primer admin: la API nunca asigna roles.
func newPromoteCmd(opts *rootOpts) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "promote <email>",
		Short: "Asigna un rol (default admin) a una identidad",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := domain.Role(role)
			if !r.Valid() {
				return fmt.Errorf("invalid role %q (user|admin)", role)
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver == "memory" {
				return errors.New("promote has no effect on the memory store")
			}

			ctx := cmd.Context()
			repo, err := store.Open(ctx, store.ConfigFrom(cfg))
			if err != nil {
				return err
			}
			defer repo.Close()

			it, err := repo.GetByEmail(ctx, args[0])
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("no identity with email %q", args[0])
			}
			if err != nil {
				return err
			}
			if err := repo.SetRole(ctx, it.ID, r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", it.Email, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "Rol a asignar: user|admin")
	return cmd
}
