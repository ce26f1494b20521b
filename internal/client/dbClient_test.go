package client

import (
	"bytes"
	"log/slog"
	"membership-api/internal/config"
	"membership-api/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDatabase_SQLiteMigrates(t *testing.T) {
	db, err := OpenDatabase(config.Database{Driver: "sqlite"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, m := range model.AllModels() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&model.UnlockedCall{}, "idx_unlock_user_call"))
}

func TestOpenDatabase_UnknownDriver(t *testing.T) {
	_, err := OpenDatabase(config.Database{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpenDatabase_QueryLogGoesToSlog(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	db, err := OpenDatabase(config.Database{Driver: "sqlite"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	buf.Reset()

	var event model.PaymentEvent
	err = db.Where("payment_id = ?", "pay_missing").First(&event).Error
	require.Error(t, err)
	assert.NotContains(t, buf.String(), "record not found")

	require.Error(t, db.Exec("SELECT * FROM no_such_table").Error)
	assert.Contains(t, buf.String(), "no_such_table")
	assert.Contains(t, buf.String(), "msg=gorm")
}
