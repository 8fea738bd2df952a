package main

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/credgate/internal/config"
	"github.com/dropDatabas3/credgate/internal/security/password"
	"github.com/dropDatabas3/credgate/internal/security/secretbox"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--env-file", t.TempDir()+"/missing.env"))
	err := root.Execute()
	return out.String(), err
}

func TestGenSecret(t *testing.T) {
	out, err := run(t, "", "gen-secret")
	require.NoError(t, err)
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Len(t, raw, 48)

	_, err = run(t, "", "gen-secret", "--bytes", "16")
	assert.ErrorContains(t, err, "at least 32")
}

func TestHashPassword(t *testing.T) {
	h := password.NewHasher(password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32})

	out, err := run(t, "", "hash-password", "s3cret-pass", "--memory-kib", "1024", "--iterations", "1")
	require.NoError(t, err)
	phc := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(phc, "$argon2id$v=19$m=1024,t=1,p=1$"), phc)
	assert.True(t, h.Verify("s3cret-pass", phc))

	out, err = run(t, "from-stdin\n", "hash-password", "--memory-kib", "1024", "--iterations", "1")
	require.NoError(t, err)
	assert.True(t, h.Verify("from-stdin", strings.TrimSpace(out)))

	_, err = run(t, "", "hash-password")
	assert.Error(t, err)
}

func TestMigrate_ArgValidation(t *testing.T) {
	_, err := run(t, "", "migrate", "sideways")
	assert.ErrorContains(t, err, "unknown direction")

	_, err = run(t, "", "migrate", "up", "-1")
	assert.ErrorContains(t, err, "non-negative")
}

func TestPromote_InvalidRole(t *testing.T) {
	_, err := run(t, "", "promote", "a@b.co", "--role", "root")
	assert.ErrorContains(t, err, "invalid role")
}

func TestEncrypt(t *testing.T) {
	key, err := run(t, "", "gen-secret", "--bytes", "32")
	require.NoError(t, err)
	key = strings.TrimSpace(key)

	t.Setenv(config.SecretboxKeyEnv, "")
	_, err = run(t, "", "encrypt", "x")
	assert.ErrorContains(t, err, config.SecretboxKeyEnv)

	t.Setenv(config.SecretboxKeyEnv, key)
	out, err := run(t, "", "encrypt", "postgres://app:pw@db/credgate")
	require.NoError(t, err)
	sealed := strings.TrimSpace(out)
	require.True(t, secretbox.IsSealed(sealed))

	box, err := secretbox.New(key)
	require.NoError(t, err)
	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:pw@db/credgate", plain)
}
