// Package txdecoder turns a block's raw transactions and its block-results
// into typed chain.Transaction rows, resolving Decrypted return codes from
// end-block events and correlating Decrypted transactions to their Wrapper
// in the prior block.
package txdecoder

import (
	"encoding/hex"
	"strconv"
	"strings"

	coretypes "github.com/cometbft/cometbft/rpc/core/types"

	"namadexer/internal/chain"
	"namadexer/internal/checksums"
	nerrors "namadexer/internal/errors"
	"namadexer/internal/txcodec"
)

// DecodeBlock decodes every raw transaction in a block. prevBlockTxs is
// the previous block's persisted transactions in insertion order; it may
// be nil only when the current block has no Decrypted transactions needing
// pairing (e.g. genesis).
func DecodeBlock(
	blockID chain.BlockID,
	rawTxs [][]byte,
	results *coretypes.ResultBlockResults,
	registry *checksums.Registry,
	prevBlockTxs []chain.Transaction,
) ([]chain.Transaction, error) {
	out := make([]chain.Transaction, 0, len(rawTxs))
	decryptedSeen := 0

	for _, raw := range rawTxs {
		env, err := txcodec.Decode(raw)
		if err != nil {
			return nil, nerrors.Wrap(nerrors.KindInvalidTxData, "txdecoder.DecodeBlock", err)
		}

		tx := chain.Transaction{
			Hash:    env.HeaderHash,
			BlockID: blockID,
			TxType:  env.Type,
		}

		switch env.Type {
		case chain.TxTypeWrapper:
			tx.FeeAmountPerGasUnit = env.FeeAmountPerGasUnit
			tx.FeeToken = env.FeeToken
			tx.GasLimitMultiplier = env.GasLimitMultiplier

		case chain.TxTypeDecrypted:
			returnCode, err := resolveReturnCode(results, env.HeaderHash)
			if err != nil {
				return nil, err
			}
			tx.ReturnCode = &returnCode

			wrapperID, err := resolveWrapperID(decryptedSeen, prevBlockTxs)
			if err != nil {
				return nil, err
			}
			tx.WrapperID = wrapperID
			decryptedSeen++

			tx.Code = append([]byte(nil), env.CodeHash[:]...)
			codeHashHex := hex.EncodeToString(env.CodeHash[:])
			codeType := registry.Lookup(codeHashHex)
			if !KnownKinds[codeType] {
				codeType = "unknown"
			}
			tx.CodeType = codeType
			if env.Memo != nil {
				tx.Memo = env.Memo
			}

			if returnCode == 0 && codeType != "unknown" {
				data, err := decodePayload(codeType, env.Data)
				if err != nil {
					return nil, nerrors.Wrap(nerrors.KindInvalidTxData, "txdecoder.DecodeBlock", err)
				}
				tx.Data = data
			}

		case chain.TxTypeRaw, chain.TxTypeProtocol:
			// Other tx_type values carry no decoded body.
		}

		out = append(out, tx)
	}

	return out, nil
}

// resolveReturnCode scans block-results' end-block events for one whose
// "hash" attribute equals headerHash (case-insensitive hex), returning its
// "code" attribute as an integer. A block-results response with no
// end-block events at all is treated as fatal rather than a zero code.
func resolveReturnCode(results *coretypes.ResultBlockResults, headerHash [32]byte) (int32, error) {
	if results == nil || len(results.EndBlockEvents) == 0 {
		return 0, nerrors.New(nerrors.KindInvalidTxData, "txdecoder.resolveReturnCode",
			"block-results has no end-block events but a Decrypted transaction needs a return code")
	}

	want := strings.ToLower(hex.EncodeToString(headerHash[:]))
	for _, ev := range results.EndBlockEvents {
		var hashAttr, codeAttr string
		var hasHash, hasCode bool
		for _, attr := range ev.Attributes {
			switch attr.Key {
			case "hash":
				hashAttr = strings.ToLower(attr.Value)
				hasHash = true
			case "code":
				codeAttr = attr.Value
				hasCode = true
			}
		}
		if hasHash && hashAttr == want {
			if !hasCode {
				return 0, nil
			}
			code, err := strconv.ParseInt(codeAttr, 10, 32)
			if err != nil {
				return 0, nerrors.Wrap(nerrors.KindParseInt, "txdecoder.resolveReturnCode", err)
			}
			return int32(code), nil
		}
	}

	return 0, nerrors.New(nerrors.KindInvalidTxData, "txdecoder.resolveReturnCode",
		"no end-block event matches decrypted transaction hash "+want)
}

// resolveWrapperID pairs the decryptedIndex-th Decrypted transaction of the
// current block with the decryptedIndex-th transaction (by insertion
// order) of the previous block. A previous block with fewer transactions
// than needed is fatal.
func resolveWrapperID(decryptedIndex int, prevBlockTxs []chain.Transaction) ([]byte, error) {
	if decryptedIndex >= len(prevBlockTxs) {
		return nil, nerrors.New(nerrors.KindInvalidTxData, "txdecoder.resolveWrapperID",
			"previous block has fewer transactions than this block has Decrypted transactions")
	}
	wrapper := prevBlockTxs[decryptedIndex]
	return append([]byte(nil), wrapper.Hash[:]...), nil
}
