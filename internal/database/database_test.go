package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrations, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}

	for _, e := range entries {
		name := e.Name()

		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}

	assert.Equal(t, ups, downs)
}

func TestInitialSchemaGuardsLedger(t *testing.T) {
	body, err := fs.ReadFile(migrations, "migrations/000001_init.up.sql")
	require.NoError(t, err)

	schema := string(body)
	assert.Contains(t, schema, "CHECK (reserved + encumbered + disbursed <= appropriated)")
	assert.Contains(t, schema, "UNIQUE (candidate_id, type)")
}
