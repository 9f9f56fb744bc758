// Package chain holds the persisted shapes: Block, CommitSignature,
// Evidence and Transaction. These are plain value types; nothing here
// talks to the database or the RPC client.
package chain

// BlockID is the 32-byte header hash identifying a block.
type BlockID [32]byte

// PartSetHeader is the (total, hash) pair Tendermint attaches to a
// block-id to describe how the block's wire encoding is chunked.
type PartSetHeader struct {
	Total uint32
	Hash  BlockID
}

// BlockIDRef is a block-id together with its part-set header, used for
// both the previous-block and last-commit references on Block.
type BlockIDRef struct {
	Hash          BlockID
	PartSetHeader PartSetHeader
}

// Block is a finalized unit of chain history, identified by BlockID.
// Created once per height, never mutated; HeaderHeight must increase by
// exactly 1 per chain.
type Block struct {
	BlockID BlockID

	AppVersion   uint32
	BlockVersion uint32
	ChainID      string
	HeaderHeight uint32
	HeaderTime   string // RFC3339

	// LastBlockID is nil (all three last_block columns NULL) only for the
	// genesis block; otherwise all three are set together.
	LastBlockID *BlockIDRef

	LastCommitHash    string
	DataHash          string
	ValidatorsHash    string
	NextValidatorHash string
	ConsensusHash     string
	AppHash           string
	LastResultsHash   string
	EvidenceHash      string
	ProposerAddress   string

	LastCommitHeight uint32
	LastCommitRound  int32
	LastCommitBlock  *BlockIDRef
}

// CommitSignature is one validator's signature over a block's last commit.
type CommitSignature struct {
	BlockID          BlockID
	BlockIDFlag      int32
	ValidatorAddress []byte
	Timestamp        *string // seconds-since-epoch as text; absent for absent signatures
	Signature        []byte
}

// Evidence is a persisted duplicate-vote evidence entry. Other evidence
// variants are logged and dropped before reaching this type.
type Evidence struct {
	BlockID          BlockID
	Height           int64
	Time             string
	ValidatorAddress []byte
	TotalVotingPower string
	ValidatorPower   string
}

// TxType is the outer envelope kind of a transaction.
type TxType string

const (
	TxTypeRaw       TxType = "Raw"
	TxTypeWrapper   TxType = "Wrapper"
	TxTypeDecrypted TxType = "Decrypted"
	TxTypeProtocol  TxType = "Protocol"
)

// Transaction is a decoded, persisted transaction row. Fee fields are set
// only for TxTypeWrapper; Code/CodeType are set only for TxTypeDecrypted,
// and Data only for TxTypeDecrypted transactions of a known kind that
// resolved to return code 0.
type Transaction struct {
	Hash      [32]byte
	BlockID   BlockID
	TxType    TxType
	WrapperID []byte // hash of the Wrapper this Decrypted tx reveals; empty otherwise

	FeeAmountPerGasUnit string
	FeeToken            string
	GasLimitMultiplier  string

	Code     []byte // 32-byte code hash, set only for Decrypted
	CodeType string // looked up from the checksum registry; "unknown" if absent or not a known kind

	Data []byte // JSON document of the decoded payload; nil for unknown kinds and non-zero return codes

	Memo       *string
	ReturnCode *int32
}
