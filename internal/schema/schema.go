// Package schema emits the idempotent DDL into a chain-namespaced Postgres
// schema, plus the post-sync indexes applied once ingestion catches up.
// Decoded payloads live in transactions.data jsonb, with one read-only
// view per known transaction kind rather than per-kind side tables.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	nerrors "namadexer/internal/errors"
)

// Conn is satisfied by *pgxpool.Pool, *pgx.Conn, and pgx.Tx, so DDL and
// index creation can run either outside or inside a transaction.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Apply creates the schema, tables, and per-kind views for schemaName if
// they do not already exist. Safe to call on every process start.
func Apply(ctx context.Context, conn Conn, schemaName string, kinds map[string]string) error {
	stmts := append([]string{}, coreDDL(schemaName)...)
	for hash, kind := range kinds {
		stmts = append(stmts, viewDDL(schemaName, kind, hash))
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return nerrors.Wrap(nerrors.KindDB, "schema.Apply", fmt.Errorf("%s: %w", stmt, err))
		}
	}
	return nil
}

func coreDDL(schemaName string) []string {
	q := pgQuote(schemaName)
	return []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, q),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.blocks (
			block_id BYTEA NOT NULL,
			app_version INTEGER NOT NULL,
			block_version INTEGER NOT NULL,
			chain_id TEXT NOT NULL,
			header_height INTEGER NOT NULL,
			header_time TEXT NOT NULL,
			last_block_hash BYTEA,
			last_block_parts_total INTEGER,
			last_block_parts_hash BYTEA,
			last_commit_hash TEXT,
			data_hash TEXT,
			validators_hash TEXT,
			next_validators_hash TEXT,
			consensus_hash TEXT,
			app_hash TEXT,
			last_results_hash TEXT,
			evidence_hash TEXT,
			proposer_address TEXT,
			last_commit_height INTEGER,
			last_commit_round INTEGER,
			last_commit_block_hash BYTEA,
			last_commit_parts_total INTEGER,
			last_commit_parts_hash BYTEA
		)`, q),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.commit_signatures (
			block_id BYTEA NOT NULL,
			block_id_flag INTEGER NOT NULL,
			validator_address BYTEA NOT NULL,
			timestamp TEXT,
			signature BYTEA
		)`, q),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.evidences (
			block_id BYTEA NOT NULL,
			height BIGINT NOT NULL,
			time TEXT NOT NULL,
			validator_address BYTEA NOT NULL,
			total_voting_power TEXT NOT NULL,
			validator_power TEXT NOT NULL
		)`, q),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.transactions (
			id BIGSERIAL PRIMARY KEY,
			hash BYTEA NOT NULL,
			block_id BYTEA NOT NULL,
			tx_type TEXT NOT NULL,
			wrapper_id BYTEA,
			fee_amount_per_gas_unit TEXT,
			fee_token TEXT,
			gas_limit_multiplier TEXT,
			code BYTEA,
			code_type TEXT,
			data JSONB,
			memo TEXT,
			return_code INTEGER
		)`, q),
	}
}

// viewDDL creates one read-only projection of transactions.data for kind,
// filtered by code = hash.
func viewDDL(schemaName, kind, hash string) string {
	q := pgQuote(schemaName)
	viewName := pgQuote(kind + "_view")
	return fmt.Sprintf(
		`CREATE OR REPLACE VIEW %s.%s AS SELECT hash, block_id, data FROM %s.transactions WHERE code = decode(%s, 'hex')`,
		q, viewName, q, pgLiteral(hash))
}

// Indexes emits the post-sync indexes: primary/unique keys and the foreign
// key plus secondary indexes on high-cardinality JSON paths used by the
// read API.
func Indexes(ctx context.Context, conn Conn, schemaName string) error {
	q := pgQuote(schemaName)
	stmts := []string{
		fmt.Sprintf(`DO $$ BEGIN
			ALTER TABLE %s.blocks ADD CONSTRAINT blocks_pkey PRIMARY KEY (block_id);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`, q),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS blocks_header_height_idx ON %s.blocks (header_height)`, q),
		fmt.Sprintf(`DO $$ BEGIN
			ALTER TABLE %s.transactions ADD CONSTRAINT transactions_block_id_fkey FOREIGN KEY (block_id) REFERENCES %s.blocks (block_id);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`, q, q),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS transactions_hash_idx ON %s.transactions (hash)`, q),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS transactions_source_idx ON %s.transactions ((data->>'source'))`, q),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS transactions_target_idx ON %s.transactions ((data->>'target'))`, q),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS transactions_validator_idx ON %s.transactions ((data->>'validator'))`, q),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS commit_signatures_block_id_idx ON %s.commit_signatures (block_id)`, q),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS evidences_block_id_idx ON %s.evidences (block_id)`, q),
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return nerrors.Wrap(nerrors.KindDB, "schema.Indexes", fmt.Errorf("%s: %w", stmt, err))
		}
	}
	return nil
}

// IndexesExist reports whether the post-sync indexes have already been
// created for schemaName, by probing pg_indexes for the height index.
func IndexesExist(ctx context.Context, conn Conn, schemaName string) (bool, error) {
	var count int
	err := conn.QueryRow(ctx,
		`SELECT count(*) FROM pg_indexes WHERE schemaname = $1 AND indexname = 'blocks_header_height_idx'`,
		schemaName,
	).Scan(&count)
	if err != nil {
		return false, nerrors.Wrap(nerrors.KindDB, "schema.IndexesExist", err)
	}
	return count > 0, nil
}

// TruncateAll empties every table in schemaName. Used by the store
// benchmark and the indexer's reset subcommand; never called from the read
// or write path of a live run.
func TruncateAll(ctx context.Context, conn Conn, schemaName string) error {
	q := pgQuote(schemaName)
	for _, table := range []string{"transactions", "evidences", "commit_signatures", "blocks"} {
		stmt := fmt.Sprintf(`TRUNCATE TABLE %s.%s`, q, pgQuote(table))
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return nerrors.Wrap(nerrors.KindDB, "schema.TruncateAll", err)
		}
	}
	return nil
}

func pgQuote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func pgLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
