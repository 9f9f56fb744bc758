package rpc

import (
	"fmt"
	"strconv"

	cmttypes "github.com/cometbft/cometbft/types"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"

	"namadexer/internal/chain"
)

func convertBlockID(id cmttypes.BlockID) chain.BlockIDRef {
	var ref chain.BlockIDRef
	copy(ref.Hash[:], id.Hash.Bytes())
	ref.PartSetHeader.Total = id.PartSetHeader.Total
	copy(ref.PartSetHeader.Hash[:], id.PartSetHeader.Hash.Bytes())
	return ref
}

func convertBlock(resp *coretypes.ResultBlock) *chain.Block {
	header := resp.Block.Header

	b := &chain.Block{
		AppVersion:        uint32(header.Version.App),
		BlockVersion:      uint32(header.Version.Block),
		ChainID:           header.ChainID,
		HeaderHeight:      uint32(header.Height),
		HeaderTime:        header.Time.Format("2006-01-02T15:04:05.999999999Z07:00"),
		LastCommitHash:    header.LastCommitHash.String(),
		DataHash:          header.DataHash.String(),
		ValidatorsHash:    header.ValidatorsHash.String(),
		NextValidatorHash: header.NextValidatorsHash.String(),
		ConsensusHash:     header.ConsensusHash.String(),
		AppHash:           header.AppHash.String(),
		LastResultsHash:   header.LastResultsHash.String(),
		EvidenceHash:      header.EvidenceHash.String(),
		ProposerAddress:   header.ProposerAddress.String(),
	}
	copy(b.BlockID[:], resp.BlockID.Hash.Bytes())

	if header.Height > 1 {
		lastID := convertBlockID(header.LastBlockID)
		b.LastBlockID = &lastID
	}

	if resp.Block.LastCommit != nil {
		b.LastCommitHeight = uint32(resp.Block.LastCommit.Height)
		b.LastCommitRound = resp.Block.LastCommit.Round
		lastCommitID := convertBlockID(resp.Block.LastCommit.BlockID)
		b.LastCommitBlock = &lastCommitID
	}

	return b
}

func convertCommitSignatures(blockID chain.BlockID, resp *coretypes.ResultBlock) []chain.CommitSignature {
	if resp.Block.LastCommit == nil {
		return nil
	}
	sigs := make([]chain.CommitSignature, 0, len(resp.Block.LastCommit.Signatures))
	for _, s := range resp.Block.LastCommit.Signatures {
		cs := chain.CommitSignature{
			BlockID:          blockID,
			BlockIDFlag:      int32(s.BlockIDFlag),
			ValidatorAddress: append([]byte(nil), s.ValidatorAddress...),
			Signature:        append([]byte(nil), s.Signature...),
		}
		if !s.Timestamp.IsZero() {
			ts := strconv.FormatInt(s.Timestamp.Unix(), 10)
			cs.Timestamp = &ts
		}
		sigs = append(sigs, cs)
	}
	return sigs
}

func convertEvidences(blockID chain.BlockID, resp *coretypes.ResultBlock) []chain.Evidence {
	out := make([]chain.Evidence, 0, len(resp.Block.Evidence.Evidence))
	for _, ev := range resp.Block.Evidence.Evidence {
		dve, ok := ev.(*cmttypes.DuplicateVoteEvidence)
		if !ok {
			// Only duplicate-vote evidence is persisted; other variants
			// are logged by the caller and dropped here.
			continue
		}
		out = append(out, chain.Evidence{
			BlockID:          blockID,
			Height:           dve.Height(),
			Time:             dve.Time().Format("2006-01-02T15:04:05.999999999Z07:00"),
			ValidatorAddress: append([]byte(nil), dve.VoteA.ValidatorAddress.Bytes()...),
			TotalVotingPower: fmt.Sprintf("%d", dve.TotalVotingPower),
			ValidatorPower:   fmt.Sprintf("%d", dve.ValidatorPower),
		})
	}
	return out
}
