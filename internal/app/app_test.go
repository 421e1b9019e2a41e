package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/granttrack/internal/app"
	"github.com/MrJamesThe3rd/granttrack/internal/config"
)

const seedPolicy = `
review:
  allow_skip: true
reporting:
  critical_after_days: 14
  default_deadline: "2027-08-31"
cycles:
  - name: 2026-27 Teacher Residency
    appropriated: "$250,000.00"
    start_date: "2026-07-01"
    end_date: "2027-06-30"
`

func memoryConfig(t *testing.T, policy string) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	cfg.Store.Driver = config.DriverMemory
	cfg.Policy.Path = filepath.Join(t.TempDir(), "policy.yaml")

	if policy != "" {
		require.NoError(t, os.WriteFile(cfg.Policy.Path, []byte(policy), 0o600))
	}

	return cfg
}

func TestNew_SeedsCyclesOnce(t *testing.T) {
	a, err := app.New(memoryConfig(t, seedPolicy))
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()

	require.NoError(t, a.SeedCycles(ctx))
	require.NoError(t, a.SeedCycles(ctx))

	cycles, err := a.Grant.ListCycles(ctx)
	require.NoError(t, err)
	require.Len(t, cycles, 1)

	assert.Equal(t, "2026-27 Teacher Residency", cycles[0].Name)
	assert.Equal(t, int64(25_000_000), cycles[0].Appropriated)
	assert.True(t, cycles[0].ApplicationOpen)

	snap, err := a.Grant.GetLedgerSnapshot(ctx, cycles[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25_000_000), snap.Remaining)
}

func TestNew_MissingPolicyUsesDefaults(t *testing.T) {
	a, err := app.New(memoryConfig(t, ""))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.SeedCycles(context.Background()))
	assert.False(t, a.Policy.Review.AllowSkip)
}

func TestNew_InvalidPolicy(t *testing.T) {
	_, err := app.New(memoryConfig(t, "reporting:\n  critical_after_days: -1\n"))
	assert.ErrorContains(t, err, "invalid policy")
}
