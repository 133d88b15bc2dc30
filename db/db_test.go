package db

import (
	"errors"
	"os"
	"strings"
	"testing"

	"fbref-scraper/models"

	"github.com/stretchr/testify/require"
)

func TestConnString(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_PASSWORD", "secret")

	dsn := connString()
	require.True(t, strings.HasPrefix(dsn, "host=db.internal port=5432 "), dsn)
	require.Contains(t, dsn, "password=secret")
	require.Contains(t, dsn, "search_path="+schemaName)

	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/fbref")
	require.Equal(t, "postgres://u:p@localhost/fbref", connString())
}

// openTestDB connects to FBREF_TEST_DATABASE_URL, skipping when it is unset
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("FBREF_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("FBREF_TEST_DATABASE_URL not set")
	}
	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)

	run, err := db.CreateRun(42, 7, "https://fbref.com/en/squads/18bb7c10/2023-2024/matchlogs/all_comps/")
	require.NoError(t, err)
	require.Equal(t, StatusCreated, run.Status)

	claimed, err := db.ClaimNextRun()
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.Equal(t, StatusInProgress, claimed.Status)

	require.NoError(t, db.SaveCategoryResult(claimed.ID, models.CategoryOutcome{Category: "shooting", Rows: 38}))
	require.NoError(t, db.SaveCategoryResult(claimed.ID, models.CategoryOutcome{
		Category: "keeper", Stage: "fetch", Err: errors.New("status 429"),
	}))

	results, err := db.GetCategoryResults(claimed.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "ok", results[0].Status)
	require.Equal(t, "failed", results[1].Status)
	require.Equal(t, "fetch", results[1].Stage.String)

	require.NoError(t, db.CompleteRun(claimed.ID, 38, 1, "/tmp/out.csv"))
	done, err := db.GetRunByID(claimed.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDone, done.Status)
	require.Equal(t, 38, done.RowsCount)
	require.Equal(t, "/tmp/out.csv", done.OutputPath.String)
}

func TestGetRunByIDMissing(t *testing.T) {
	db := openTestDB(t)

	run, err := db.GetRunByID(-1)
	require.NoError(t, err)
	require.Nil(t, run)
}
