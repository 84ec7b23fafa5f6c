package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantSQL   bool
		wantAuto  bool
		wantError bool
	}{
		{"sqlite always automigrates", config.Config{DBDriver: config.DriverSQLite, DBSchemaMode: SchemaModeSQL}, false, true, false},
		{"hybrid development", config.Config{DBDriver: config.DriverPostgres, Env: "development"}, true, true, false},
		{"hybrid production", config.Config{DBDriver: config.DriverPostgres, Env: "production", DBSchemaMode: "HYBRID"}, true, false, false},
		{"sql only", config.Config{DBDriver: config.DriverPostgres, DBSchemaMode: SchemaModeSQL}, true, false, false},
		{"auto development", config.Config{DBDriver: config.DriverPostgres, DBSchemaMode: SchemaModeAuto}, false, true, false},
		{"auto refused in production", config.Config{DBDriver: config.DriverPostgres, Env: "prod", DBSchemaMode: SchemaModeAuto}, false, false, true},
		{"unknown mode", config.Config{DBDriver: config.DriverPostgres, DBSchemaMode: "yolo"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestConnectSQLiteAppliesSchema(t *testing.T) {
	cfg := &config.Config{DBDriver: config.DriverSQLite, SQLitePath: ":memory:"}

	db, err := Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}

	u := models.User{LoginName: "ada", Password: "hash", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, db.Create(&u).Error)
	assert.NotEmpty(t, u.ID)

	p := models.Photo{UserID: u.ID, FileName: "U1a.jpg", DateTime: time.Now()}
	require.NoError(t, db.Create(&p).Error)

	var loaded models.Photo
	require.NoError(t, db.First(&loaded, "id = ?", p.ID).Error)
	assert.NotNil(t, loaded.Mentions)
	assert.Empty(t, loaded.Mentions)

	require.NoError(t, Ping(context.Background(), db))

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
}

func TestConnectRejectsDocumentDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: config.DriverMongo})
	assert.Error(t, err)
}

func TestCustomGormLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()
	sqlFn := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), sqlFn, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now(), sqlFn, errors.New("syntax error"))
	assert.Contains(t, buf.String(), "GORM query error")
	buf.Reset()

	l.Trace(ctx, time.Now().Add(-time.Second), sqlFn, nil)
	assert.Contains(t, buf.String(), "GORM slow query")
	buf.Reset()

	silent := l.LogMode(logger.Silent)
	silent.Trace(ctx, time.Now(), sqlFn, errors.New("ignored"))
	assert.Empty(t, buf.String())
}
