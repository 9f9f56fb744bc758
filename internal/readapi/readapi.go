// Package readapi implements the read-only data layer: one parameterized
// query per operation, run directly against the shared connection pool
// with no caching layer.
package readapi

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	nerrors "namadexer/internal/errors"
)

// MASPAddress is the well-known shielded-pool address shielded_assets
// aggregates transfers against.
const MASPAddress = "tnam1pcqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqzmefah"

// defaultUptimeWindow is the block count validator_uptime covers when the
// caller supplies no [start,end] range.
const defaultUptimeWindow = 500

// Querier is satisfied by *db.Pool; only Query/QueryRow are needed since
// the read API never mutates.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// API bundles every read operation for one chain's schema.
type API struct {
	db     Querier
	schema string
}

// New constructs an API bound to one chain schema.
func New(db Querier, schemaName string) *API {
	return &API{db: db, schema: schemaName}
}

func (a *API) table(name string) string {
	return pgQuote(a.schema) + "." + pgQuote(name)
}

func pgQuote(ident string) string {
	return `"` + ident + `"`
}

// BlockRow is a row of the blocks table, returned verbatim to the HTTP
// layer for JSON encoding.
type BlockRow struct {
	BlockID           []byte
	AppVersion        int32
	BlockVersion      int32
	ChainID           string
	HeaderHeight      int32
	HeaderTime        string
	ProposerAddress   string
	AppHash           string
	DataHash          string
	EvidenceHash      string
	LastCommitHash    string
	ValidatorsHash    string
	ConsensusHash     string
	LastResultsHash   string
	NextValidatorHash string
}

func scanBlockRow(row pgx.Row) (*BlockRow, error) {
	var b BlockRow
	err := row.Scan(
		&b.BlockID, &b.AppVersion, &b.BlockVersion, &b.ChainID, &b.HeaderHeight, &b.HeaderTime,
		&b.ProposerAddress, &b.AppHash, &b.DataHash, &b.EvidenceHash, &b.LastCommitHash,
		&b.ValidatorsHash, &b.ConsensusHash, &b.LastResultsHash, &b.NextValidatorHash,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.scanBlockRow", err)
	}
	return &b, nil
}

const blockColumns = `block_id, app_version, block_version, chain_id, header_height, header_time,
	proposer_address, app_hash, data_hash, evidence_hash, last_commit_hash,
	validators_hash, consensus_hash, last_results_hash, next_validators_hash`

// BlockByID returns the block with the given id, or nil if none exists.
func (a *API) BlockByID(ctx context.Context, blockID []byte) (*BlockRow, error) {
	row := a.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE block_id = $1`, blockColumns, a.table("blocks")), blockID)
	return scanBlockRow(row)
}

// BlockByHeight returns the block at height, or nil if none exists.
func (a *API) BlockByHeight(ctx context.Context, height int32) (*BlockRow, error) {
	row := a.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE header_height = $1`, blockColumns, a.table("blocks")), height)
	return scanBlockRow(row)
}

// LastBlock returns the highest block persisted. It is an error for the
// table to be empty.
func (a *API) LastBlock(ctx context.Context) (*BlockRow, error) {
	row := a.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY header_height DESC LIMIT 1`, blockColumns, a.table("blocks")))
	b, err := scanBlockRow(row)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nerrors.New(nerrors.KindDB, "readapi.LastBlock", "blocks table is empty")
	}
	return b, nil
}

// LastBlocks returns up to count blocks descending by height, skipping
// offset rows.
func (a *API) LastBlocks(ctx context.Context, count, offset int32) ([]BlockRow, error) {
	rows, err := a.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s ORDER BY header_height DESC LIMIT $1 OFFSET $2`, blockColumns, a.table("blocks")),
		count, offset)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.LastBlocks", err)
	}
	defer rows.Close()

	var out []BlockRow
	for rows.Next() {
		b, err := scanBlockRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.LastBlocks", err)
	}
	return out, nil
}

// LastHeight returns the highest persisted header_height.
func (a *API) LastHeight(ctx context.Context) (int32, error) {
	var height int32
	err := a.db.QueryRow(ctx, fmt.Sprintf(`SELECT max(header_height) FROM %s`, a.table("blocks"))).Scan(&height)
	if err != nil {
		return 0, nerrors.Wrap(nerrors.KindDB, "readapi.LastHeight", err)
	}
	return height, nil
}

// TxRow is a row of the transactions table.
type TxRow struct {
	Hash       []byte
	BlockID    []byte
	TxType     string
	WrapperID  []byte
	CodeType   string
	Data       []byte
	Memo       *string
	ReturnCode *int32
}

const txColumns = `hash, block_id, tx_type, wrapper_id, code_type, data, memo, return_code`

func scanTxRow(row pgx.Row) (*TxRow, error) {
	var t TxRow
	err := row.Scan(&t.Hash, &t.BlockID, &t.TxType, &t.WrapperID, &t.CodeType, &t.Data, &t.Memo, &t.ReturnCode)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.scanTxRow", err)
	}
	return &t, nil
}

// TxByHash returns the transaction with the given hash, or nil.
func (a *API) TxByHash(ctx context.Context, hash []byte) (*TxRow, error) {
	row := a.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE hash = $1`, txColumns, a.table("transactions")), hash)
	return scanTxRow(row)
}

// TxHashKind is one (hash, tx_type) pair for a block's transaction list.
type TxHashKind struct {
	Hash   []byte
	TxType string
}

// TxHashesByBlock returns every transaction hash and type for blockID, in
// insertion order.
func (a *API) TxHashesByBlock(ctx context.Context, blockID []byte) ([]TxHashKind, error) {
	rows, err := a.db.Query(ctx, fmt.Sprintf(
		`SELECT t.hash, t.tx_type FROM %s b JOIN %s t ON b.block_id = t.block_id WHERE b.block_id = $1 ORDER BY t.id`,
		a.table("blocks"), a.table("transactions")), blockID)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.TxHashesByBlock", err)
	}
	defer rows.Close()

	var out []TxHashKind
	for rows.Next() {
		var h TxHashKind
		if err := rows.Scan(&h.Hash, &h.TxType); err != nil {
			return nil, nerrors.Wrap(nerrors.KindDB, "readapi.TxHashesByBlock", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.TxHashesByBlock", err)
	}
	return out, nil
}

// TxsByAddress returns every transaction whose decoded payload names addr
// as either source or target.
func (a *API) TxsByAddress(ctx context.Context, addr string) ([]TxRow, error) {
	rows, err := a.db.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE data->>'source' = $1 OR data->>'target' = $1`, txColumns, a.table("transactions")), addr)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.TxsByAddress", err)
	}
	defer rows.Close()

	var out []TxRow
	for rows.Next() {
		t, err := scanTxRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.TxsByAddress", err)
	}
	return out, nil
}

// ShieldedAssets sums transfer amounts crossing MASPAddress per token:
// target == MASP increments the balance, source == MASP decrements it,
// and a transfer where both are MASP (a self-loop) is ignored.
func (a *API) ShieldedAssets(ctx context.Context) (map[string]float64, error) {
	rows, err := a.db.Query(ctx, fmt.Sprintf(
		`SELECT data->>'source', data->>'target', data->>'token', data->>'amount'
		 FROM %s WHERE code_type = 'tx_transfer' AND (data->>'source' = $1 OR data->>'target' = $1)`,
		a.table("transactions")), MASPAddress)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.ShieldedAssets", err)
	}
	defer rows.Close()

	var transfers []shieldedTransfer
	for rows.Next() {
		var t shieldedTransfer
		if err := rows.Scan(&t.Source, &t.Target, &t.Token, &t.AmountStr); err != nil {
			return nil, nerrors.Wrap(nerrors.KindDB, "readapi.ShieldedAssets", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.ShieldedAssets", err)
	}
	return aggregateShielded(transfers)
}

// shieldedTransfer is one tx_transfer row's fields relevant to
// shielded-pool aggregation.
type shieldedTransfer struct {
	Source, Target, Token, AmountStr string
}

// aggregateShielded sums transfers crossing MASPAddress per token: a
// transfer targeting MASP increments the balance, one sourced from MASP
// decrements it, and a self-loop (both ends MASP) is ignored.
func aggregateShielded(transfers []shieldedTransfer) (map[string]float64, error) {
	out := map[string]float64{}
	for _, t := range transfers {
		if t.Source == MASPAddress && t.Target == MASPAddress {
			continue
		}
		var amount float64
		if _, err := fmt.Sscanf(t.AmountStr, "%f", &amount); err != nil {
			return nil, nerrors.Wrap(nerrors.KindParseFloat, "readapi.aggregateShielded", err)
		}
		switch {
		case t.Target == MASPAddress:
			out[t.Token] += amount
		case t.Source == MASPAddress:
			out[t.Token] -= amount
		}
	}
	return out, nil
}

// VoteProposal returns every vote_proposal transaction row for proposalID.
func (a *API) VoteProposal(ctx context.Context, proposalID string) ([]TxRow, error) {
	rows, err := a.db.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE code_type = 'tx_vote_proposal' AND data->>'proposal_id' = $1`,
		txColumns, a.table("transactions")), proposalID)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.VoteProposal", err)
	}
	defer rows.Close()

	var out []TxRow
	for rows.Next() {
		t, err := scanTxRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.VoteProposal", err)
	}
	return out, nil
}

// VoteProposalDelegations returns the distinct delegator addresses that
// voted on proposalID.
func (a *API) VoteProposalDelegations(ctx context.Context, proposalID string) ([]string, error) {
	rows, err := a.db.Query(ctx, fmt.Sprintf(
		`SELECT DISTINCT jsonb_array_elements_text(data->'delegators') FROM %s
		 WHERE code_type = 'tx_vote_proposal' AND data->>'proposal_id' = $1 AND jsonb_typeof(data->'delegators') = 'array'`,
		a.table("transactions")), proposalID)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.VoteProposalDelegations", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var delegator string
		if err := rows.Scan(&delegator); err != nil {
			return nil, nerrors.Wrap(nerrors.KindDB, "readapi.VoteProposalDelegations", err)
		}
		out = append(out, delegator)
	}
	if err := rows.Err(); err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.VoteProposalDelegations", err)
	}
	return out, nil
}

// ValidatorUptime counts how many commit signatures validatorAddr
// contributed within [start, end) header heights, or the last
// defaultUptimeWindow blocks when start/end are both nil, and returns
// (signed, rangeSize).
func (a *API) ValidatorUptime(ctx context.Context, validatorAddr []byte, start, end *int32) (int64, int64, error) {
	var rangeSize int64
	var lo, hi int32
	if start != nil && end != nil {
		lo, hi = *start, *end
		rangeSize = int64(hi - lo)
	} else {
		height, err := a.LastHeight(ctx)
		if err != nil {
			return 0, 0, err
		}
		hi = height + 1
		lo = height - defaultUptimeWindow + 1
		if lo < 1 {
			lo = 1
		}
		rangeSize = defaultUptimeWindow
	}

	var count int64
	err := a.db.QueryRow(ctx, fmt.Sprintf(
		`SELECT count(*) FROM %s cs JOIN %s b ON cs.block_id = b.block_id
		 WHERE cs.validator_address = $1 AND b.header_height >= $2 AND b.header_height < $3`,
		a.table("commit_signatures"), a.table("blocks")), validatorAddr, lo, hi).Scan(&count)
	if err != nil {
		return 0, 0, nerrors.Wrap(nerrors.KindDB, "readapi.ValidatorUptime", err)
	}
	return count, rangeSize, nil
}

// AccountHistory is the combined historical view of an account's
// threshold, vp_code, and public_key changes, built from its
// update-account transactions in on-chain order.
type AccountHistory struct {
	Thresholds []int32
	VPCodes    []string
	PublicKeys [][]string
}

// AccountHistory returns accountID's threshold/vp_code/public_key history
// ordered by the transaction insertion order of its update-account
// transactions.
func (a *API) AccountHistory(ctx context.Context, accountID string) (*AccountHistory, error) {
	rows, err := a.db.Query(ctx, fmt.Sprintf(
		`SELECT data->>'threshold', data->>'vp_code_hash', data->'public_keys'
		 FROM %s WHERE code_type = 'tx_update_account' AND data->>'addr' = $1 ORDER BY id`,
		a.table("transactions")), accountID)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.AccountHistory", err)
	}
	defer rows.Close()

	hist := &AccountHistory{}
	for rows.Next() {
		var threshold *int32
		var vpCode *string
		var publicKeys []byte
		if err := rows.Scan(&threshold, &vpCode, &publicKeys); err != nil {
			return nil, nerrors.Wrap(nerrors.KindDB, "readapi.AccountHistory", err)
		}
		if threshold != nil {
			hist.Thresholds = append(hist.Thresholds, *threshold)
		}
		if vpCode != nil {
			hist.VPCodes = append(hist.VPCodes, *vpCode)
		}
		if len(publicKeys) > 0 {
			keys, err := decodeJSONStringArray(publicKeys)
			if err != nil {
				return nil, nerrors.Wrap(nerrors.KindSerde, "readapi.AccountHistory", err)
			}
			hist.PublicKeys = append(hist.PublicKeys, keys)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "readapi.AccountHistory", err)
	}
	return hist, nil
}
