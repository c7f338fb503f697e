package database

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDSN(t *testing.T) {
	dsn := Options{User: "app", Pass: "secret", Host: "db", Port: "3306", Name: "tickets"}.DSN()

	assert.True(t, strings.HasPrefix(dsn, "app:secret@tcp(db:3306)/tickets?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestStatements(t *testing.T) {
	stmts := Statements()
	require.Len(t, stmts, 5)
	for _, s := range stmts {
		assert.True(t, strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS"), s)
	}
	assert.Contains(t, stmts[2], "UNIQUE KEY uq_showing_seat (movie_title, show_time, seat_id)")
	assert.Contains(t, stmts[2], "ON DELETE CASCADE")
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range Statements() {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
