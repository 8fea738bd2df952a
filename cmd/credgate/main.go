// Command credgate levanta el servicio de credenciales y agrupa las tareas
// operativas (migraciones, secretos, roles).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/credgate/internal/config"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

// version se pisa en build: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOpts struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}
	root := &cobra.Command{
		Use:           "credgate",
		Short:         "Servicio de registro, login y ciclo de vida de credenciales",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env es opcional; las variables del sistema tienen prioridad.
			if err := godotenv.Load(opts.envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load %s: %w", opts.envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv(config.EnvPrefix+"CONFIG"), "Path al YAML de configuración (env CREDGATE_CONFIG)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Archivo .env opcional")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newGenSecretCmd(),
		newHashPasswordCmd(),
		newPromoteCmd(opts),
		newEncryptCmd(),
	)
	return root
}

// loadConfig lee la config e inicializa el logger del proceso.
func (o *rootOpts) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "credgate",
		Version:     version,
	})
	return cfg, nil
}
