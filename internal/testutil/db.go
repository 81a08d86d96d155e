package testutil

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"vot-service/internal/db"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// NewDB opens a private in-memory SQLite database with every migration
// applied. One connection keeps the shared-cache database alive and
// serialises writers the way row locks do on PostgreSQL.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := unsafeName.ReplaceAllString(t.Name(), "_")
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())

	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}
