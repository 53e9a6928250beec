//go:build integration

package database

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *sqlx.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "docker.io/postgres:16-alpine",
		postgres.WithDatabase("review_bot_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("failed to get connection string: %v", err)
	}

	testDB, err = NewPostgresDB(dsn)
	if err != nil {
		log.Fatalf("failed to connect and migrate: %v", err)
	}

	code := m.Run()

	_ = testDB.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestPostgresStore_SaveLoadPrune(t *testing.T) {
	ctx := context.Background()
	store := NewPostgresStore(testDB)

	empty, err := store.LoadCollection(ctx, "tracked_reviews")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.SaveCollection(ctx, "tracked_reviews", map[string]json.RawMessage{
		"1": json.RawMessage(`{"threadKey":"1","reviewers":["ua"]}`),
		"2": json.RawMessage(`{"threadKey":"2","reviewers":[]}`),
	}))
	require.NoError(t, store.SaveCollection(ctx, "user_stats", map[string]json.RawMessage{
		"ua": json.RawMessage(`{"userId":"ua","prsApproved":1}`),
	}))

	loaded, err := store.LoadCollection(ctx, "tracked_reviews")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.JSONEq(t, `{"threadKey":"1","reviewers":["ua"]}`, string(loaded["1"]))

	require.NoError(t, store.SaveCollection(ctx, "tracked_reviews", map[string]json.RawMessage{
		"2": json.RawMessage(`{"threadKey":"2","reviewers":["ub"]}`),
	}))

	loaded, err = store.LoadCollection(ctx, "tracked_reviews")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.JSONEq(t, `{"threadKey":"2","reviewers":["ub"]}`, string(loaded["2"]))

	stats, err := store.LoadCollection(ctx, "user_stats")
	require.NoError(t, err)
	assert.Len(t, stats, 1, "other collections are untouched")

	require.NoError(t, store.SaveCollection(ctx, "tracked_reviews", map[string]json.RawMessage{}))
	loaded, err = store.LoadCollection(ctx, "tracked_reviews")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestMigrateDB_Idempotent(t *testing.T) {
	require.NoError(t, MigrateDB(testDB.DB))
}
