package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipkoec77/Edureach/core"
)

// Runs against the server configured through the usual postgres settings when
// EDUREACH_TEST_POSTGRES is set.
func TestCreateIfNotExist(t *testing.T) {
	if os.Getenv("EDUREACH_TEST_POSTGRES") == "" {
		t.Skip("EDUREACH_TEST_POSTGRES not set")
	}
	conf := core.NewTestConfig()
	conf.Postgres.Name = "edureach_test"

	require.NoError(t, CreateIfNotExist(conf))
	require.NoError(t, CreateIfNotExist(conf), "second run finds role and database")

	db, err := OpenPostgres(conf)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, Migrate(db.DB, "up"))

	tests := []struct {
		name  string
		db    core.DBExecutor
		query string
		args  []interface{}
		want  bool
	}{
		{name: "database", db: db, query: "SELECT true FROM pg_database WHERE datname = $1", args: []interface{}{conf.Postgres.Name}, want: true},
		{name: "role", db: db.DB, query: "SELECT true FROM pg_roles WHERE rolname = $1", args: []interface{}{conf.Postgres.User}, want: true},
		{name: "users table", db: db, query: "SELECT true FROM information_schema.tables WHERE table_name = $1", args: []interface{}{"users"}, want: true},
		{name: "missing", db: db, query: "SELECT true FROM pg_database WHERE datname = $1", args: []interface{}{"nope_nope"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := exists(tt.db, tt.query, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, found)
		})
	}
}
