package policy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	path := writePolicy(t, `
review:
  allow_skip: true
reporting:
  critical_after_days: 45
  default_deadline: 2027-08-31
cycles:
  - name: 2026-27 Teacher Residency Stipend
    appropriated: "25,000,000.00"
    start_date: 2026-07-01
    end_date: 2027-06-30
  - name: Closed Cycle
    appropriated: "1000"
    start_date: 2025-07-01
    end_date: 2026-06-30
    reporting_deadline: 2026-08-31
    application_open: false
`)

	p, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.True(t, p.Review.AllowSkip)
	assert.Equal(t, 45*24*time.Hour, p.CriticalAfter())

	params, err := p.CycleParams()
	require.NoError(t, err)
	require.Len(t, params, 2)

	assert.Equal(t, int64(2_500_000_000), params[0].Appropriated)
	assert.True(t, params[0].ApplicationOpen)
	assert.Equal(t, time.Date(2027, 8, 31, 0, 0, 0, 0, time.UTC), params[0].ReportingDeadline)

	assert.Equal(t, int64(100_000), params[1].Appropriated)
	assert.False(t, params[1].ApplicationOpen)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), params[1].ReportingDeadline)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.False(t, p.Review.AllowSkip)
	assert.Equal(t, 30, p.Reporting.CriticalAfterDays)
	assert.Empty(t, p.Cycles)
}

func TestValidate(t *testing.T) {
	type testCase struct {
		name    string
		body    string
		wantErr string
	}

	tests := []testCase{
		{
			name: "AmountWithTooManyDecimals",
			body: `
cycles:
  - name: A
    appropriated: "10.001"
    start_date: 2026-07-01
    end_date: 2027-06-30
    reporting_deadline: 2027-08-31
`,
			wantErr: "cycles[0].appropriated",
		},
		{
			name: "NoDeadlineAnywhere",
			body: `
cycles:
  - name: A
    appropriated: "10"
    start_date: 2026-07-01
    end_date: 2027-06-30
`,
			wantErr: "cycles[0].reporting_deadline",
		},
		{
			name: "MissingName",
			body: `
cycles:
  - appropriated: "10"
`,
			wantErr: "cycles[0].name",
		},
		{
			name: "NegativeWindow",
			body: `
reporting:
  critical_after_days: -1
`,
			wantErr: "critical_after_days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Load(writePolicy(t, tt.body))
			require.NoError(t, err)

			err = p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
