package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTOML(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	path := writeTOML(t, `
chain_name = "public-testnet-15"

[database]
host = "localhost"
user = "indexer"
password = "secret"
dbname = "namada"

[indexer]
tendermint_addr = "http://localhost:26657"
`)

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Port != 5432 {
		t.Fatalf("expected default port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Server.Port != 30303 {
		t.Fatalf("expected default server port 30303, got %d", cfg.Server.Port)
	}
	if cfg.SchemaName() != "public_testnet_15" {
		t.Fatalf("expected schema public_testnet_15, got %s", cfg.SchemaName())
	}
}

func TestValidateRejectsDotInChainName(t *testing.T) {
	cfg := &Config{ChainName: "public.testnet"}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for chain name containing '.'")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "db"
	cfg.Database.Port = 5432
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.DBName = "namada"

	want := "host=db port=5432 user=u password=p dbname=namada"
	if got := cfg.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
}
