// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/squareledger/auth"
	"github.com/danielhkuo/squareledger/db"
	"github.com/danielhkuo/squareledger/ledger"
	"github.com/danielhkuo/squareledger/models"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// runCLI executes wardctl with args and returns stdout, stderr and the error.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func tempDBURL(t *testing.T) string {
	return "file:" + filepath.Join(t.TempDir(), "wardctl.db")
}

// logVisits records visits straight through the allocator.
func logVisits(t *testing.T, url, wardID string, desired ...*int) {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, db.TypeSQLite, url)
	require.NoError(t, err)
	defer conn.Close()

	alloc := ledger.NewAllocator(ledger.NewStore(conn, db.TypeSQLite), ledger.Options{})
	for i, d := range desired {
		_, err := alloc.LogVisit(ctx, models.LogVisitRequest{
			WardID:              wardID,
			Name:                []string{"Alice", "Bob", "Carol", "Dan"}[i%4],
			Mode:                models.ModeKiosk,
			DesiredSquareNumber: d,
		})
		require.NoError(t, err)
	}
}

func intPtr(n int) *int { return &n }

func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	out, _, err := runCLI(t)
	assert.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "wardctl")
}

func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	_, _, err := runCLI(t, "--unknown-flag", "value")
	assert.Error(t, err)
}

func TestMissingDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, stderr, err := runCLI(t, "stats", "cedar-hills")
	require.Error(t, err)
	assert.Contains(t, stderr, "no database configured")
	assert.Contains(t, stderr, "--db")
}

func TestProvision(t *testing.T) {
	url := tempDBURL(t)

	t.Run("prints admin key", func(t *testing.T) {
		out, _, err := runCLI(t, "--db", url, "provision", "cedar-hills", "--name", "Cedar Hills Ward", "--admin-salt", "s3cret")
		require.NoError(t, err)
		assert.Contains(t, out, "Provisioned cedar-hills (Cedar Hills Ward) with 365 squares")
		assert.Contains(t, out, "Admin key: "+auth.GenerateAdminKey("cedar-hills", "s3cret"))
	})

	t.Run("without salt warns", func(t *testing.T) {
		t.Setenv("ADMIN_KEY_SALT", "")
		out, _, err := runCLI(t, "--db", url, "provision", "oak-grove")
		require.NoError(t, err)
		assert.Contains(t, out, "admin key not shown")
		assert.NotContains(t, out, "Admin key:")
	})

	t.Run("existing ward", func(t *testing.T) {
		_, stderr, err := runCLI(t, "--db", url, "provision", "cedar-hills")
		require.Error(t, err)
		assert.Contains(t, stderr, "ward already exists")
	})

	t.Run("invalid id", func(t *testing.T) {
		_, stderr, err := runCLI(t, "--db", url, "provision", "Not A Ward")
		require.Error(t, err)
		assert.Contains(t, stderr, "cannot provision ward")
	})

	t.Run("requires ward id", func(t *testing.T) {
		_, _, err := runCLI(t, "--db", url, "provision")
		assert.Error(t, err)
	})
}

func TestStats(t *testing.T) {
	url := tempDBURL(t)
	_, _, err := runCLI(t, "--db", url, "provision", "cedar-hills")
	require.NoError(t, err)
	logVisits(t, url, "cedar-hills", intPtr(5), intPtr(5), nil)

	t.Run("table", func(t *testing.T) {
		out, _, err := runCLI(t, "--db", url, "stats", "cedar-hills")
		require.NoError(t, err)
		assert.Regexp(t, `Total visits\s+3`, out)
		assert.Regexp(t, `Squares filled\s+2 / 365`, out)
		assert.Regexp(t, `Bonus visits\s+1`, out)
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := runCLI(t, "--db", url, "stats", "cedar-hills", "--json")
		require.NoError(t, err)

		var resp models.WardWithStats
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "cedar-hills", resp.Ward.ID)
		assert.Equal(t, 3, resp.Stats.TotalVisits)
		assert.Equal(t, 2, resp.Stats.SquaresFilled)
		assert.Equal(t, 1, resp.Stats.TotalBonusVisits)
	})

	t.Run("unknown ward", func(t *testing.T) {
		_, stderr, err := runCLI(t, "--db", url, "stats", "nowhere")
		require.Error(t, err)
		assert.Contains(t, stderr, "ward not found")
		assert.Contains(t, stderr, "wardctl provision nowhere")
	})
}

func TestSquares(t *testing.T) {
	url := tempDBURL(t)
	_, _, err := runCLI(t, "--db", url, "provision", "cedar-hills")
	require.NoError(t, err)
	logVisits(t, url, "cedar-hills", intPtr(365))

	out, _, err := runCLI(t, "--db", url, "squares", "cedar-hills")
	require.NoError(t, err)
	assert.Contains(t, out, " 365")
	assert.Contains(t, out, "1 of 365 squares claimed")
}

func TestVisits(t *testing.T) {
	url := tempDBURL(t)
	_, _, err := runCLI(t, "--db", url, "provision", "cedar-hills")
	require.NoError(t, err)

	out, _, err := runCLI(t, "--db", url, "visits", "cedar-hills")
	require.NoError(t, err)
	assert.Contains(t, out, "No visits recorded")

	logVisits(t, url, "cedar-hills", intPtr(5), intPtr(5), nil)

	out, _, err = runCLI(t, "--db", url, "visits", "cedar-hills")
	require.NoError(t, err)
	assert.Contains(t, out, "TIME")
	assert.Contains(t, out, "collision")
	assert.Contains(t, out, "bonus")

	out, _, err = runCLI(t, "--db", url, "visits", "cedar-hills", "--limit", "1")
	require.NoError(t, err)
	// Header plus one row
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("\n")))
}

func TestAudit(t *testing.T) {
	url := tempDBURL(t)
	_, _, err := runCLI(t, "--db", url, "provision", "cedar-hills")
	require.NoError(t, err)
	logVisits(t, url, "cedar-hills", intPtr(1), intPtr(1), nil)

	out, _, err := runCLI(t, "--db", url, "audit", "cedar-hills")
	require.NoError(t, err)
	assert.Contains(t, out, "cedar-hills is consistent")

	// Corrupt the counters behind the allocator's back
	conn, err := db.Open(context.Background(), db.TypeSQLite, url)
	require.NoError(t, err)
	_, err = conn.Exec("UPDATE ward_stats SET total_visits = total_visits + 1 WHERE ward_id = 'cedar-hills'")
	require.NoError(t, err)
	conn.Close()

	_, stderr, err := runCLI(t, "--db", url, "audit", "cedar-hills")
	require.Error(t, err)
	assert.Contains(t, stderr, "ward is inconsistent")
	assert.Contains(t, stderr, "total_visits")
}
