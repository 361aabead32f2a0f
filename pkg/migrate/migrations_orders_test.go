package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skybazaar/skybazaar-backend/pkg/migrate"
)

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_line_items",
		"CREATE TABLE IF NOT EXISTS tracking_events",
		"CONSTRAINT chk_orders_total_nonneg CHECK (total_cents >= 0)",
		"CONSTRAINT chk_orders_payment_status CHECK (payment_status IN ('pending', 'initiated', 'paid', 'failed'))",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPaymentTransactionsMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_payment_transactions_table.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no payment transactions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payment_transactions",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_transactions_session_id",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations invalid: %v", err)
	}
}
