package database

import (
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cfg, err := mysql.ParseDSN(dsn("app", "pw", "db", "3306", "booking"))
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "pw", cfg.Passwd)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "booking", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, time.UTC, cfg.Loc)
	assert.Equal(t, "utf8mb4", cfg.Params["charset"])

	assert.True(t, strings.HasPrefix(dsn("app", "", "db", "3306", "booking"), "app@tcp(db:3306)/booking?"))
}

func TestSchemaOrderAndRules(t *testing.T) {
	joined := strings.Join(schema, "\n")
	assert.Less(t, strings.Index(joined, "TABLE IF NOT EXISTS roles"), strings.Index(joined, "TABLE IF NOT EXISTS presenters"))
	assert.Less(t, strings.Index(joined, "TABLE IF NOT EXISTS presenters"), strings.Index(joined, "TABLE IF NOT EXISTS numbers"))
	assert.Contains(t, joined, "REFERENCES roles (code) ON DELETE RESTRICT")
	assert.Contains(t, joined, "REFERENCES numbers (code) ON DELETE CASCADE")
	assert.Contains(t, joined, "UNIQUE KEY uq_registrations_user_number (user_id, number_code)")
}
