package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/edupay/internal/app/normalize"
	"github.com/yigit/edupay/internal/bootstrap"
	"github.com/yigit/edupay/internal/config"
	pkgauth "github.com/yigit/edupay/internal/pkg/auth"
	"github.com/yigit/edupay/internal/seed"
	"github.com/yigit/edupay/internal/store"
	"github.com/yigit/edupay/internal/store/memstore"
)

func init() {
	pkgauth.BcryptCost = bcrypt.MinCost
}

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.Server.Port = "8080"
	cfg.Server.StoragePath = t.TempDir()
	cfg.Server.MaxLogoBytes = 1 << 20
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TokenExpiration = "1h"
	cfg.JWT.Issuer = "edupay.test"
	cfg.Admin.LoginID = "admin"
	cfg.Admin.Password = "admin-pass"
	cfg.Admin.Name = "Super Admin"
	cfg.Receipts.Prefix = "DC"
	cfg.Receipts.Base = 1000
	cfg.Sync.RefreshTimeout = 5 * time.Second
	cfg.Sync.StoreCallTimeout = time.Second
	return cfg
}

func setup(t *testing.T, mem *memstore.Store) (*commandLine, *bytes.Buffer) {
	t.Helper()
	cfg := testConfig(t)
	deps, err := bootstrap.BuildDependencies(context.Background(), cfg, mem, zerolog.Nop())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &commandLine{cfg: cfg, deps: deps, out: out}, out
}

func run(cmd *commandLine, args ...string) error {
	return newApp(cmd).Run(append([]string{"edupay-admin"}, args...))
}

func Test_commandLine_sync(t *testing.T) {
	mem := memstore.New()
	require.NoError(t, seed.CreateDemoData(context.Background(), mem, zerolog.Nop()))
	cmd, out := setup(t, mem)

	require.NoError(t, run(cmd, "sync"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Contains(t, lines, "courses          2")
	assert.Contains(t, lines, "students         3")
	assert.Contains(t, lines, "feeHeads         5")
}

func Test_commandLine_seed(t *testing.T) {
	mem := memstore.New()
	cmd, out := setup(t, mem)

	require.NoError(t, run(cmd, "seed", "--demo"))

	assert.Equal(t, "seed complete\n", out.String())
	assert.Len(t, mem.Rows(store.TableSettings), 1)
	assert.Len(t, mem.Rows(store.TableCourses), 2)
}

func Test_commandLine_addAccountant(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		prompt     string
		promptErr  error
		wantErrStr string
	}{
		{name: "password flag", args: []string{"--name", "Priya Nair", "--login", "priya", "--password", "s3cret"}},
		{name: "prompted password", args: []string{"--name", "Priya Nair", "--login", "priya"}, prompt: "s3cret"},
		{name: "empty prompt", args: []string{"--name", "Priya Nair", "--login", "priya"}, wantErrStr: "a password is required"},
		{name: "prompt fails", args: []string{"--name", "Priya Nair", "--login", "priya"}, promptErr: errors.New("no tty"), wantErrStr: "no tty"},
		{name: "admin login reserved", args: []string{"--name", "Imposter", "--login", "admin", "--password", "x"}, wantErrStr: "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := memstore.New()
			cmd, out := setup(t, mem)
			original := readPasswordFunc
			readPasswordFunc = func(int) ([]byte, error) {
				return []byte(tt.prompt), tt.promptErr
			}
			t.Cleanup(func() { readPasswordFunc = original })

			err := run(cmd, append([]string{"add-accountant"}, tt.args...)...)
			if tt.wantErrStr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrStr)
				assert.Empty(t, mem.Rows(store.TableAccountants))
				return
			}

			require.NoError(t, err)
			assert.Contains(t, out.String(), "accountant Priya Nair (priya) created")
			rows := mem.Rows(store.TableAccountants)
			require.Len(t, rows, 1)
			acc := normalize.Accountant(rows[0])
			assert.Equal(t, "priya", acc.UserID)
			assert.True(t, pkgauth.IsHashed(acc.Password))
		})
	}
}

func Test_commandLine_export(t *testing.T) {
	mem := memstore.New()
	require.NoError(t, seed.CreateDemoData(context.Background(), mem, zerolog.Nop()))
	cmd, out := setup(t, mem)

	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, run(cmd, "export", "--out", path, "ledger"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Aarav Sharma")
	assert.Contains(t, string(data), "Kabir Rao")
	assert.Contains(t, out.String(), "wrote "+path)
}

func Test_commandLine_exportErrors(t *testing.T) {
	mem := memstore.New()
	cmd, _ := setup(t, mem)

	err := run(cmd, "export", "invoices")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown export "invoices"`)

	err = run(cmd, "export", "--format", "pdf", "payments")
	require.Error(t, err)
}
