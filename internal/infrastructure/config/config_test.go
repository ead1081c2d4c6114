package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.StorageDriver != config.StoragePostgres {
		t.Fatalf("expected postgres storage by default, got %s", cfg.StorageDriver)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.SearchLimit != 20 || cfg.BalanceCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected ledger defaults: search=%d ttl=%s", cfg.SearchLimit, cfg.BalanceCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_RPS", "12.5")
	t.Setenv("OUTBOX_ENABLED", "true")
	t.Setenv("OUTBOX_STREAM", "ledger-events")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.StorageDriver != config.StorageMemory || cfg.RateLimitRPS != 12.5 {
		t.Fatalf("unexpected overrides: driver=%s rps=%v", cfg.StorageDriver, cfg.RateLimitRPS)
	}

	if !cfg.OutboxEnabled || cfg.OutboxStream != "ledger-events" {
		t.Fatalf("expected outbox settings, got enabled=%v stream=%s", cfg.OutboxEnabled, cfg.OutboxStream)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadUnknownStorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for unsupported storage driver")
	}
}

func TestLoadPostingRules(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		rules, err := config.LoadPostingRules("")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultPostingRules(), rules)
	})

	t.Run("file overrides single entries", func(t *testing.T) {
		path := writeFile(t, `
accounts:
  cash_in_bank: "1100"
expense_categories:
  9: "5090"
default_expense_account: "5999"
`)

		rules, err := config.LoadPostingRules(path)
		require.NoError(t, err)

		assert.Equal(t, "1100", rules.AccountFor(domain.RoleCashInBank))
		assert.Equal(t, "4012", rules.AccountFor(domain.RoleServiceRevenue))
		assert.Equal(t, "5090", rules.ExpenseAccountFor(9))
		assert.Equal(t, "5021", rules.ExpenseAccountFor(1))
		assert.Equal(t, "5999", rules.ExpenseAccountFor(42))
	})

	t.Run("blanking a role is rejected", func(t *testing.T) {
		path := writeFile(t, "accounts:\n  tax_prepaid: \"\"\n")

		_, err := config.LoadPostingRules(path)
		assert.ErrorIs(t, err, domain.ErrInvalidPostingRules)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "accounts: [unclosed")

		_, err := config.LoadPostingRules(path)
		assert.ErrorIs(t, err, domain.ErrInvalidPostingRules)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadPostingRules(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posting_rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
