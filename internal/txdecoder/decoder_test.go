package txdecoder

import (
	"encoding/hex"
	"testing"

	abci "github.com/cometbft/cometbft/abci/types"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"

	"namadexer/internal/chain"
	"namadexer/internal/checksums"
	nerrors "namadexer/internal/errors"
	"namadexer/internal/txcodec"
)

func registryWith(hash, kind string) *checksums.Registry {
	return checksums.NewForTest(map[string]string{hash: kind})
}

func TestDecodeBlockWrapperOnly(t *testing.T) {
	env := &txcodec.Envelope{Type: chain.TxTypeWrapper, FeeAmountPerGasUnit: "10", FeeToken: "NAM", GasLimitMultiplier: "1"}
	raw := txcodec.Encode(env)

	var blockID chain.BlockID
	txs, err := DecodeBlock(blockID, [][]byte{raw}, nil, checksums.NewForTest(nil), nil)
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	if len(txs) != 1 || txs[0].TxType != chain.TxTypeWrapper || txs[0].FeeToken != "NAM" {
		t.Fatalf("unexpected result: %+v", txs)
	}
}

func TestDecodeBlockDecryptedResolvesReturnCodeAndWrapper(t *testing.T) {
	wrapperEnv := &txcodec.Envelope{Type: chain.TxTypeWrapper, FeeAmountPerGasUnit: "1", FeeToken: "NAM", GasLimitMultiplier: "1"}
	wrapperRaw := txcodec.Encode(wrapperEnv)
	decodedWrapper, err := txcodec.Decode(wrapperRaw)
	if err != nil {
		t.Fatalf("decode wrapper: %v", err)
	}

	prevBlockTxs := []chain.Transaction{{Hash: decodedWrapper.HeaderHash, TxType: chain.TxTypeWrapper}}

	codeHashHex := "aa11223344556677889900aabbccddeeff001122334455667788990011aabb"
	var codeHash [32]byte
	b, _ := hex.DecodeString(codeHashHex)
	copy(codeHash[:], b)

	payload := []byte(`{"source":"a","target":"b","token":"NAM","amount":"10"}`)
	decryptedEnv := &txcodec.Envelope{Type: chain.TxTypeDecrypted, CodeHash: codeHash, Data: payload}
	decryptedRaw := txcodec.Encode(decryptedEnv)
	decodedDecrypted, err := txcodec.Decode(decryptedRaw)
	if err != nil {
		t.Fatalf("decode decrypted: %v", err)
	}

	wantHashHex := hex.EncodeToString(decodedDecrypted.HeaderHash[:])
	results := &coretypes.ResultBlockResults{
		EndBlockEvents: []abci.Event{
			{
				Type: "tx",
				Attributes: []abci.EventAttribute{
					{Key: "hash", Value: wantHashHex},
					{Key: "code", Value: "0"},
				},
			},
		},
	}

	registry := registryWith(codeHashHex, "tx_transfer")

	var blockID chain.BlockID
	txs, err := DecodeBlock(blockID, [][]byte{decryptedRaw}, results, registry, prevBlockTxs)
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 tx, got %d", len(txs))
	}
	got := txs[0]
	if got.TxType != chain.TxTypeDecrypted {
		t.Fatalf("expected Decrypted, got %s", got.TxType)
	}
	if got.ReturnCode == nil || *got.ReturnCode != 0 {
		t.Fatalf("expected return code 0, got %+v", got.ReturnCode)
	}
	if got.CodeType != "tx_transfer" {
		t.Fatalf("expected tx_transfer, got %s", got.CodeType)
	}
	if string(got.WrapperID) != string(decodedWrapper.HeaderHash[:]) {
		t.Fatalf("wrapper id mismatch")
	}
	if got.Data == nil {
		t.Fatalf("expected decoded payload, got nil data")
	}
}

func TestDecodeBlockMissingEndBlockEventsIsFatal(t *testing.T) {
	env := &txcodec.Envelope{Type: chain.TxTypeDecrypted, Data: []byte("{}")}
	raw := txcodec.Encode(env)

	var blockID chain.BlockID
	_, err := DecodeBlock(blockID, [][]byte{raw}, nil, checksums.NewForTest(nil), []chain.Transaction{{}})
	if err == nil {
		t.Fatal("expected fatal error for missing end-block events")
	}
	if nerrors.KindOf(err) != nerrors.KindInvalidTxData {
		t.Fatalf("expected InvalidTxData, got %v", nerrors.KindOf(err))
	}
}

func TestDecodeBlockInsufficientPrevTxsIsFatal(t *testing.T) {
	env := &txcodec.Envelope{Type: chain.TxTypeDecrypted, Data: []byte("{}")}
	raw := txcodec.Encode(env)
	decoded, _ := txcodec.Decode(raw)

	results := &coretypes.ResultBlockResults{
		EndBlockEvents: []abci.Event{{
			Attributes: []abci.EventAttribute{
				{Key: "hash", Value: hex.EncodeToString(decoded.HeaderHash[:])},
				{Key: "code", Value: "0"},
			},
		}},
	}

	var blockID chain.BlockID
	_, err := DecodeBlock(blockID, [][]byte{raw}, results, checksums.NewForTest(nil), nil)
	if err == nil {
		t.Fatal("expected fatal error when previous block has too few transactions")
	}
}

func TestDecodeBlockUnknownCodeTypeStoresNoPayload(t *testing.T) {
	env := &txcodec.Envelope{Type: chain.TxTypeDecrypted, Data: []byte(`{"anything":1}`)}
	raw := txcodec.Encode(env)
	decoded, _ := txcodec.Decode(raw)

	results := &coretypes.ResultBlockResults{
		EndBlockEvents: []abci.Event{{
			Attributes: []abci.EventAttribute{
				{Key: "hash", Value: hex.EncodeToString(decoded.HeaderHash[:])},
				{Key: "code", Value: "0"},
			},
		}},
	}

	var blockID chain.BlockID
	txs, err := DecodeBlock(blockID, [][]byte{raw}, results, checksums.NewForTest(nil), []chain.Transaction{{}})
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	if txs[0].CodeType != "unknown" {
		t.Fatalf("expected unknown code type, got %s", txs[0].CodeType)
	}
	if txs[0].Data != nil {
		t.Fatalf("expected no decoded payload for unknown kind, got %s", txs[0].Data)
	}
}
