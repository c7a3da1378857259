package postgres_test

import (
	"context"
	"testing"
	"time"

	"coinledger/config"
	"coinledger/pkg/storage/postgres"
)

func testConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "yourpw",
		DBName:   "coinledger",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}
}

// newTestClient connects to the local test database, skipping the test when
// no server is reachable.
func newTestClient(t *testing.T) *postgres.PostgresClient {
	t.Helper()

	cfg := testConfig()
	client, err := postgres.NewClient(cfg.DSN("dev"))
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if !client.IsHealthy(ctx) {
		t.Skip("postgres unavailable: ping failed")
	}

	if err := client.AutoMigrate(); err != nil {
		t.Fatalf("auto migration failed: %v", err)
	}
	return client
}

// go test -v --run ^TestPostgresInvalidDSN$
func TestPostgresInvalidDSN(t *testing.T) {
	invalidDSN := "host=invalid port=5432 user=fail password=fail dbname=fail sslmode=disable"

	_, err := postgres.NewClient(invalidDSN)
	if err == nil {
		t.Fatal("expected error for invalid DSN, got nil")
	}
}

// go test -v --run ^TestPostgresClientHealth$
func TestPostgresClientHealth(t *testing.T) {
	client := newTestClient(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if !client.IsHealthy(ctx) {
		t.Fatal("expected healthy DB connection")
	}
}
