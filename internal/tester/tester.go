package tester

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/emrgen/folio/internal/cache"
	"github.com/emrgen/folio/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testPath = "../../.test/"
)

var (
	db *gorm.DB
)

// Setup opens the package-wide test database shared by a TestMain.
func Setup() {
	RemoveDBFile()

	_ = os.Setenv("ENV", "test")

	err := os.MkdirAll(testPath+"/db", os.ModePerm)
	if err != nil {
		panic(err)
	}

	db, err = gorm.Open(sqlite.Open(testPath+"db/folio.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	err = model.Migrate(db)
	if err != nil {
		panic(err)
	}
}

func TestDB() *gorm.DB {
	return db
}

func RemoveDBFile() {
	err := os.RemoveAll(testPath)
	if err != nil {
		panic(err)
	}
}

// NewDB opens a migrated sqlite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	d, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "folio.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := model.Migrate(d); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := d.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return d
}

// Redis starts a miniredis server and returns a slot connected to it.
func Redis(t *testing.T) (*miniredis.Miniredis, *cache.RedisSlot) {
	t.Helper()

	s := miniredis.RunT(t)
	slot, err := cache.NewRedisSlot("redis://"+s.Addr(), 0)
	if err != nil {
		t.Fatalf("connect redis slot: %v", err)
	}
	t.Cleanup(func() { _ = slot.Close() })

	return s, slot
}
