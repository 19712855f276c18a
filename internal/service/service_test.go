package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db/dbtest"
)

func newTestDB(t *testing.T) (*gorm.DB, *dbtest.Fixtures, *zap.SugaredLogger) {
	gdb := dbtest.New(t)
	return gdb, dbtest.NewFixtures(t, gdb), zap.NewNop().Sugar()
}

// insertFirst stores row just before the next insert into table runs, inside
// the same statement's transaction, so that insert hits the unique index
// after every application-level check has passed.
func insertFirst(t *testing.T, gdb *gorm.DB, table string, row interface{}) {
	name := "test:insert_first_" + table
	fired := false
	require.NoError(t, gdb.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(row).Error; err != nil {
			_ = tx.AddError(err)
		}
	}))
	t.Cleanup(func() { _ = gdb.Callback().Create().Remove(name) })
}
