package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dcurran1637/Certificate-management/internal/models"
)

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("oracle", "dsn", zerolog.Nop())
	require.ErrorContains(t, err, "unsupported database driver")

	_, err = Connect("postgres", "", zerolog.Nop())
	require.ErrorContains(t, err, "dsn must not be empty")
}

func TestConnectAndMigrateSQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Connect("sqlite", dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, model := range models.All() {
		require.True(t, db.Migrator().HasTable(model))
	}
}

func TestGormLoggerSkipsMissingRecords(t *testing.T) {
	var buf bytes.Buffer
	gormLogger := newGormLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))
	statement := func() (string, int64) { return "SELECT * FROM courses WHERE id = 9", 0 }

	gormLogger.Trace(context.Background(), time.Now(), statement, gorm.ErrRecordNotFound)
	require.Zero(t, buf.Len())

	gormLogger.Trace(context.Background(), time.Now(), statement, errors.New("no such table: courses"))
	require.Contains(t, buf.String(), "no such table: courses")
	require.Contains(t, buf.String(), `"component":"gorm"`)
	require.Contains(t, buf.String(), `"level":"warn"`)
}

func TestLookupMissFromConnectedDatabaseIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Connect("sqlite", dsn, zerolog.New(&buf))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	buf.Reset()

	var course models.Course
	err = db.First(&course, 404).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.Zero(t, buf.Len())
}

func TestConnectRedisRequiresURL(t *testing.T) {
	_, err := ConnectRedis("")
	require.Error(t, err)

	_, err = ConnectRedis("://bad")
	require.Error(t, err)
}
