package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"namadexer/internal/chain"
	nerrors "namadexer/internal/errors"
)

// maxBatchRows caps how many rows go into a single multi-row INSERT, well
// under Postgres's 65535 bind-parameter ceiling for any of the row shapes
// this package inserts.
const maxBatchRows = 500

func (e *Engine) insertBlock(ctx context.Context, tx pgx.Tx, b *chain.Block) error {
	var lastHash, lastPartsHash []byte
	var lastPartsTotal *uint32
	if b.LastBlockID != nil {
		lastHash = b.LastBlockID.Hash[:]
		total := b.LastBlockID.PartSetHeader.Total
		lastPartsTotal = &total
		lastPartsHash = b.LastBlockID.PartSetHeader.Hash[:]
	}

	var lastCommitHeight *uint32
	var lastCommitRound *int32
	var lastCommitBlockHash, lastCommitPartsHash []byte
	var lastCommitPartsTotal *uint32
	if b.LastCommitBlock != nil {
		height := b.LastCommitHeight
		lastCommitHeight = &height
		round := b.LastCommitRound
		lastCommitRound = &round
		lastCommitBlockHash = b.LastCommitBlock.Hash[:]
		total := b.LastCommitBlock.PartSetHeader.Total
		lastCommitPartsTotal = &total
		lastCommitPartsHash = b.LastCommitBlock.PartSetHeader.Hash[:]
	}

	_, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s.blocks (
		block_id, app_version, block_version, chain_id, header_height, header_time,
		last_block_hash, last_block_parts_total, last_block_parts_hash,
		last_commit_hash, data_hash, validators_hash, next_validators_hash,
		consensus_hash, app_hash, last_results_hash, evidence_hash, proposer_address,
		last_commit_height, last_commit_round, last_commit_block_hash,
		last_commit_parts_total, last_commit_parts_hash
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`, pgQuote(e.schema)),
		b.BlockID[:], b.AppVersion, b.BlockVersion, b.ChainID, b.HeaderHeight, b.HeaderTime,
		lastHash, lastPartsTotal, lastPartsHash,
		b.LastCommitHash, b.DataHash, b.ValidatorsHash, b.NextValidatorHash,
		b.ConsensusHash, b.AppHash, b.LastResultsHash, b.EvidenceHash, b.ProposerAddress,
		lastCommitHeight, lastCommitRound, lastCommitBlockHash,
		lastCommitPartsTotal, lastCommitPartsHash,
	)
	if err != nil {
		return nerrors.Wrap(nerrors.KindDB, "store.insertBlock", err)
	}
	return nil
}

func (e *Engine) insertCommitSignatures(ctx context.Context, tx pgx.Tx, sigs []chain.CommitSignature) error {
	if len(sigs) == 0 {
		return nil
	}
	cols := []string{"block_id", "block_id_flag", "validator_address", "timestamp", "signature"}
	rows := make([][]interface{}, len(sigs))
	for i, s := range sigs {
		rows[i] = []interface{}{s.BlockID[:], s.BlockIDFlag, s.ValidatorAddress, s.Timestamp, s.Signature}
	}
	return e.bulkInsert(ctx, tx, "commit_signatures", cols, rows)
}

func (e *Engine) insertEvidences(ctx context.Context, tx pgx.Tx, evs []chain.Evidence) error {
	if len(evs) == 0 {
		return nil
	}
	cols := []string{"block_id", "height", "time", "validator_address", "total_voting_power", "validator_power"}
	rows := make([][]interface{}, len(evs))
	for i, ev := range evs {
		rows[i] = []interface{}{ev.BlockID[:], ev.Height, ev.Time, ev.ValidatorAddress, ev.TotalVotingPower, ev.ValidatorPower}
	}
	return e.bulkInsert(ctx, tx, "evidences", cols, rows)
}

func (e *Engine) insertTransactions(ctx context.Context, tx pgx.Tx, txs []chain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	cols := []string{
		"hash", "block_id", "tx_type", "wrapper_id",
		"fee_amount_per_gas_unit", "fee_token", "gas_limit_multiplier",
		"code", "code_type", "data", "memo", "return_code",
	}
	rows := make([][]interface{}, len(txs))
	for i, t := range txs {
		var data interface{}
		if t.Data != nil {
			data = string(t.Data)
		}
		rows[i] = []interface{}{
			t.Hash[:], t.BlockID[:], string(t.TxType), t.WrapperID,
			nullString(t.FeeAmountPerGasUnit), nullString(t.FeeToken), nullString(t.GasLimitMultiplier),
			t.Code, nullString(t.CodeType), data, t.Memo, t.ReturnCode,
		}
	}
	return e.bulkInsertJSON(ctx, tx, "transactions", cols, rows, 9)
}

// valuesClause builds the "($1, $2::jsonb), ($3, $4::jsonb)"-shaped placeholder
// list for numRows rows of numCols columns, casting jsonCol (0-indexed, -1
// for none) to jsonb so pgx sends it as jsonb rather than text.
func valuesClause(numRows, numCols, jsonCol int) string {
	var sb strings.Builder
	n := 1
	for r := 0; r < numRows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for c := 0; c < numCols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", n)
			if c == jsonCol {
				sb.WriteString("::jsonb")
			}
			n++
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func pgQuote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// bulkInsert issues one multi-row INSERT per maxBatchRows chunk of rows.
func (e *Engine) bulkInsert(ctx context.Context, tx pgx.Tx, table string, cols []string, rows [][]interface{}) error {
	return e.bulkInsertJSON(ctx, tx, table, cols, rows, -1)
}

// bulkInsertJSON is bulkInsert with one column (at jsonCol, 0-indexed, or
// -1 for none) cast to jsonb in the generated VALUES placeholders, since
// pgx otherwise sends a Go string as text rather than jsonb.
func (e *Engine) bulkInsertJSON(ctx context.Context, tx pgx.Tx, table string, cols []string, rows [][]interface{}, jsonCol int) error {
	for start := 0; start < len(rows); start += maxBatchRows {
		end := start + maxBatchRows
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		stmt := fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES %s",
			pgQuote(e.schema), pgQuote(table), strings.Join(cols, ", "), valuesClause(len(chunk), len(cols), jsonCol))

		args := make([]interface{}, 0, len(chunk)*len(cols))
		for _, row := range chunk {
			args = append(args, row...)
		}

		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return nerrors.Wrap(nerrors.KindDB, "store.bulkInsert", fmt.Errorf("%s: %w", table, err))
		}
	}
	return nil
}
