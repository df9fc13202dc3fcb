package migrate

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/pkg/config"
	"github.com/angelmondragon/tixledger/pkg/db"
	"github.com/angelmondragon/tixledger/pkg/db/models"
	"github.com/angelmondragon/tixledger/pkg/logger"
)

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvProd},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	// a nil client would panic if the run was not skipped
	if err := MaybeRunDev(context.Background(), cfg, logger.New(logger.Options{ServiceName: "test"}), nil); err != nil {
		t.Fatalf("expected skip, got %v", err)
	}
}

func TestMaybeRunDevAutoMigratesSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:autorun_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvDev},
		DB:           config.DBConfig{Driver: "sqlite"},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	if err := MaybeRunDev(context.Background(), cfg, logg, db.FromGorm(conn)); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	if !conn.Migrator().HasTable(&models.Payout{}) {
		t.Fatalf("expected payouts table")
	}
	if !bytes.Contains(buf.Bytes(), []byte("auto-migrate")) {
		t.Fatalf("expected auto-migrate log line, got %s", buf.String())
	}
}
