package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/tixledger/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestOrganizerBalanceConstraints(t *testing.T) {
	content := readMigration(t, "create_marketplaces_and_sales")
	checks := []string{
		"CREATE TABLE IF NOT EXISTS organizers",
		"CHECK (pending_balance_cents >= 0)",
		"CHECK (total_paid_out_cents >= 0)",
		"CHECK (total_revenue_cents - total_paid_out_cents - pending_balance_cents >= 0)",
		"FOREIGN KEY (marketplace_id) REFERENCES marketplaces(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS organizers",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPayoutAndLedgerSchemas(t *testing.T) {
	content := readMigration(t, "create_payouts_and_ledger")
	checks := []string{
		"CREATE TABLE IF NOT EXISTS payouts",
		"CHECK (amount_cents > 0)",
		"CHECK (length(btrim(reference)) > 0)",
		"CREATE TABLE IF NOT EXISTS ledger_events",
		"CREATE TABLE IF NOT EXISTS tax_rules",
		"CREATE INDEX IF NOT EXISTS idx_payouts_marketplace_created",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEnumMigrationMatchesStatuses(t *testing.T) {
	content := readMigration(t, "create_enum_types")
	checks := []string{
		"CREATE TYPE payout_status AS ENUM ('processing', 'completed', 'cancelled')",
		"CREATE TYPE ledger_event_type AS ENUM ('revenue_recorded', 'payout_reserved', 'reservation_released', 'payout_completed')",
		"EXCEPTION WHEN duplicate_object THEN NULL",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirectoryIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}
