package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/credgate/internal/config"
	jwtx "github.com/dropDatabas3/credgate/internal/jwt"
	"github.com/dropDatabas3/credgate/internal/security/password"
	"github.com/dropDatabas3/credgate/internal/security/secretbox"
	tokens "github.com/dropDatabas3/credgate/internal/security/token"
)

// gen-secret: imprime un secreto apto para jwt.access_secret / jwt.refresh_secret.
func newGenSecretCmd() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Genera un secreto aleatorio (base64url) para firmar JWT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < jwtx.MinKeyLen {
				return fmt.Errorf("--bytes must be at least %d", jwtx.MinKeyLen)
			}
			s, err := tokens.GenerateOpaqueToken(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "bytes", 48, "Bytes de entropía")
	return cmd
}

// hash-password: útil para sembrar usuarios a mano. Lee de stdin si no hay argumento.
func newHashPasswordCmd() *cobra.Command {
	p := password.Default
	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Imprime el hash argon2id (PHC) de una contraseña",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var plain string
			if len(args) == 1 {
				plain = args[0]
			} else {
				line, err := readLine(cmd)
				if err != nil {
					return errors.New("password required (argument or stdin)")
				}
				plain = line
			}
			phc, err := password.NewHasher(p).Hash(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), phc)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&p.Memory, "memory-kib", p.Memory, "Memoria argon2 en KiB")
	cmd.Flags().Uint32Var(&p.Time, "iterations", p.Time, "Iteraciones argon2")
	cmd.Flags().Uint8Var(&p.Parallelism, "parallelism", p.Parallelism, "Paralelismo argon2")
	return cmd
}

// encrypt: sella un valor para usarlo como "enc:..." en la config.
func newEncryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [value]",
		Short: "Cifra un valor de config con la clave de " + config.SecretboxKeyEnv,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := os.Getenv(config.SecretboxKeyEnv)
			if key == "" {
				return fmt.Errorf("%s not set (generate one with: credgate gen-secret --bytes 32)", config.SecretboxKeyEnv)
			}
			box, err := secretbox.New(key)
			if err != nil {
				return err
			}
			var plain string
			if len(args) == 1 {
				plain = args[0]
			} else if plain, err = readLine(cmd); err != nil {
				return errors.New("value required (argument or stdin)")
			}
			sealed, err := box.Seal(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sealed)
			return nil
		},
	}
}

func readLine(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
