package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"weighttracker/internal/app"
	"weighttracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPrintSummary(t *testing.T) {
	trend := 68.2
	var buf bytes.Buffer
	err := printSummary(&buf, &app.Summary{
		Range: domain.RangeMonth,
		Unit:  domain.UnitKg,
		Count: 2,
		Stats: &domain.Stats{
			InitialWeight:    70,
			CurrentWeight:    68,
			WeightDifference: -2,
			PercentageChange: -2.857,
			WeeklyChange:     -1,
		},
		Points: []app.SummaryPoint{
			{Date: time.Now().AddDate(0, 0, -14), Weight: 70},
			{Date: time.Now(), Weight: 68, Trend: &trend},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "70.0 kg")
	assert.Contains(t, out, "-2.0 kg (-2.9%)")
	assert.Contains(t, out, "-1.00 kg/week")
	assert.Contains(t, out, "68.2 kg")
}

func TestPrintSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, &app.Summary{Range: domain.RangeWeek, Unit: domain.UnitKg}))
	assert.Equal(t, "No entries in range week\n", buf.String())
}

func TestHashPasswordCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := hashPasswordCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"hunter2"})
	require.NoError(t, cmd.Execute())

	hash := bytes.TrimSpace(buf.Bytes())
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("hunter2")))
}

func TestStatsCmd_MemoryStore(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("LOG_LEVEL", "error")
	envName = "development"
	configPath = filepath.Join(t.TempDir(), "missing.toml")

	var buf bytes.Buffer
	cmd := statsCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--range", "all", "--json"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), `"range": "all"`)
	assert.Contains(t, buf.String(), `"stats": null`)
}

func TestStatsCmd_RejectsUnknownRange(t *testing.T) {
	cmd := statsCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--range", "decade"})
	assert.Error(t, cmd.Execute())
}
