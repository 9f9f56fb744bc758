// Package store implements the persistence engine: one database
// transaction per block, bulk-inserting the block row, its commit
// signatures, evidences, and decoded transactions, with no partial writes
// on failure.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"namadexer/internal/chain"
	"namadexer/internal/checksums"
	nerrors "namadexer/internal/errors"
	"namadexer/internal/metrics"
	"namadexer/internal/rpc"
	"namadexer/internal/txdecoder"
)

// Querier is satisfied by *pgxpool.Pool, used only to open transactions
// and run MaxHeaderHeight's read-only lookup; SaveBlock's own lookups run
// inside its transaction.
type Querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Engine is the persistence engine for one chain's schema. SaveBlock may
// not be called concurrently for the same chain.
type Engine struct {
	db       Querier
	schema   string
	registry *checksums.Registry
	metrics  *metrics.Metrics
	log      *logrus.Entry
}

// New constructs an Engine bound to one chain schema.
func New(db Querier, schemaName string, registry *checksums.Registry, m *metrics.Metrics, log *logrus.Entry) *Engine {
	return &Engine{db: db, schema: schemaName, registry: registry, metrics: m, log: log}
}

// SaveBlock persists one block atomically, decoding its transactions and
// correlating Decrypted transactions to the previous block's Wrapper rows.
func (e *Engine) SaveBlock(ctx context.Context, fetched *rpc.FetchedBlock) (err error) {
	start := time.Now()
	defer func() {
		if e.metrics == nil {
			return
		}
		status := "success"
		if err != nil {
			status = "failure"
		}
		e.metrics.SaveDurationBlock.WithLabelValues(status).Observe(float64(time.Since(start).Milliseconds()))
	}()

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return nerrors.Wrap(nerrors.KindDB, "store.SaveBlock", err)
	}
	defer tx.Rollback(ctx) // no-op after a successful Commit

	if err := e.insertBlock(ctx, tx, fetched.Block); err != nil {
		return err
	}

	sigStart := time.Now()
	if err := e.insertCommitSignatures(ctx, tx, fetched.CommitSignatures); err != nil {
		return err
	}
	e.observe(e.metricsHist("commit_sig"), sigStart)

	evStart := time.Now()
	if err := e.insertEvidences(ctx, tx, fetched.Evidences); err != nil {
		return err
	}
	e.observe(e.metricsHist("evidences"), evStart)

	prevTxs, err := e.previousBlockTransactions(ctx, tx, fetched.Block.HeaderHeight)
	if err != nil {
		return err
	}

	txStart := time.Now()
	decoded, err := txdecoder.DecodeBlock(fetched.Block.BlockID, fetched.RawTxs, fetched.Results, e.registry, prevTxs)
	if err != nil {
		return err
	}
	if err := e.insertTransactions(ctx, tx, decoded); err != nil {
		return err
	}
	e.observe(e.metricsHist("transactions"), txStart)

	if err := tx.Commit(ctx); err != nil {
		return nerrors.Wrap(nerrors.KindDB, "store.SaveBlock", err)
	}

	if e.metrics != nil {
		e.metrics.SaveCountBlock.Inc()
		e.metrics.LastSaveBlockHeight.Set(float64(fetched.Block.HeaderHeight))
	}
	if e.log != nil {
		e.log.WithField("height", fetched.Block.HeaderHeight).
			WithField("txs", len(decoded)).
			Info("block saved")
	}
	return nil
}

func (e *Engine) metricsHist(kind string) func(float64) {
	if e.metrics == nil {
		return nil
	}
	switch kind {
	case "commit_sig":
		return e.metrics.SaveDurationCommitSig.Observe
	case "evidences":
		return e.metrics.SaveDurationEvidences.Observe
	case "transactions":
		return e.metrics.SaveDurationTransactions.Observe
	default:
		return nil
	}
}

func (e *Engine) observe(fn func(float64), since time.Time) {
	if fn == nil {
		return
	}
	fn(float64(time.Since(since).Milliseconds()))
}

// MaxHeaderHeight returns the highest persisted header_height for this
// schema, or 0 if no rows exist yet.
func (e *Engine) MaxHeaderHeight(ctx context.Context) (uint32, error) {
	var height *uint32
	err := e.db.QueryRow(ctx,
		`SELECT max(header_height) FROM `+pgQuote(e.schema)+`.blocks`,
	).Scan(&height)
	if err != nil {
		return 0, nerrors.Wrap(nerrors.KindDB, "store.MaxHeaderHeight", err)
	}
	if height == nil {
		return 0, nil
	}
	return *height, nil
}

func (e *Engine) previousBlockTransactions(ctx context.Context, tx pgx.Tx, height uint32) ([]chain.Transaction, error) {
	if height <= 1 {
		return nil, nil
	}
	var prevBlockID []byte
	err := tx.QueryRow(ctx,
		`SELECT block_id FROM `+pgQuote(e.schema)+`.blocks WHERE header_height = $1`,
		height-1,
	).Scan(&prevBlockID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, nerrors.Wrap(nerrors.KindDB, "store.previousBlockTransactions", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT hash, tx_type FROM `+pgQuote(e.schema)+`.transactions WHERE block_id = $1 ORDER BY id`,
		prevBlockID,
	)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "store.previousBlockTransactions", err)
	}
	defer rows.Close()

	var out []chain.Transaction
	for rows.Next() {
		var hashBytes []byte
		var txType string
		if err := rows.Scan(&hashBytes, &txType); err != nil {
			return nil, nerrors.Wrap(nerrors.KindDB, "store.previousBlockTransactions", err)
		}
		var t chain.Transaction
		copy(t.Hash[:], hashBytes)
		t.TxType = chain.TxType(txType)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "store.previousBlockTransactions", err)
	}
	return out, nil
}
